package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
)

// lamportExponent converts lamports to whole SOL: value * 10^-9.
const lamportExponent = -9

var _ chains.Provider = (*RPCProvider)(nil)

// RPCProvider reads recent account activity over Solana JSON-RPC. It lists
// signatures first, then resolves each one to a balance delta, because the
// signature list alone carries no amounts.
type RPCProvider struct {
	name     string
	endpoint string
	client   *http.Client
}

func NewRPCProvider(name, endpoint string) *RPCProvider {
	return &RPCProvider{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

func (p *RPCProvider) Name() string {
	return p.name
}

func (p *RPCProvider) RecentTransactions(ctx context.Context, address string, limit int) ([]chains.Transaction, error) {
	var sigs []signatureInfo
	err := p.call(ctx, "getSignaturesForAddress", []interface{}{
		address,
		map[string]interface{}{"limit": limit},
	}, &sigs)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}

	txs := make([]chains.Transaction, 0, len(sigs))
	for _, sig := range sigs {
		// Failed executions move no funds.
		if len(sig.Err) > 0 && string(sig.Err) != "null" {
			continue
		}

		tx, ok, err := p.resolveTransaction(ctx, address, sig)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", sig.Signature, err)
		}
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func (p *RPCProvider) resolveTransaction(ctx context.Context, address string, sig signatureInfo) (chains.Transaction, bool, error) {
	var detail *transactionDetail
	err := p.call(ctx, "getTransaction", []interface{}{
		sig.Signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}, &detail)
	if err != nil {
		return chains.Transaction{}, false, err
	}
	// Nodes prune old transactions; a null result is not an error.
	if detail == nil {
		return chains.Transaction{}, false, nil
	}

	accountIndex := -1
	for i, key := range detail.Transaction.Message.AccountKeys {
		if key.Pubkey == address {
			accountIndex = i
			break
		}
	}
	if accountIndex < 0 ||
		accountIndex >= len(detail.Meta.PreBalances) ||
		accountIndex >= len(detail.Meta.PostBalances) {
		return chains.Transaction{}, false, nil
	}

	delta := detail.Meta.PostBalances[accountIndex] - detail.Meta.PreBalances[accountIndex]
	if delta == 0 {
		return chains.Transaction{}, false, nil
	}

	direction := chains.DirectionInbound
	if delta < 0 {
		direction = chains.DirectionOutbound
		delta = -delta
	}

	blockTime := detail.BlockTime
	if blockTime == 0 {
		blockTime = sig.BlockTime
	}

	return chains.Transaction{
		Hash:          sig.Signature,
		Amount:        decimal.New(delta, lamportExponent),
		Direction:     direction,
		Confirmations: confirmationsFor(sig.ConfirmationStatus),
		Timestamp:     time.Unix(blockTime, 0).UTC(),
		Memo:          stripMemoPrefix(sig.Memo),
	}, true, nil
}

// confirmationsFor maps commitment levels onto confirmation counts. A
// finalized slot is 32 confirmations deep by definition.
func confirmationsFor(status string) int64 {
	switch status {
	case "finalized":
		return 32
	case "confirmed":
		return 1
	default:
		return 0
	}
}

// stripMemoPrefix removes the "[len] " length prefix the RPC node prepends
// to memo instruction data, e.g. "[12] sol-a1b2c3d4".
func stripMemoPrefix(memo string) string {
	if !strings.HasPrefix(memo, "[") {
		return memo
	}
	end := strings.Index(memo, "] ")
	if end < 0 {
		return memo
	}
	return memo[end+2:]
}

func (p *RPCProvider) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		Id:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc returned status %d", resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	return json.Unmarshal(envelope.Result, out)
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	Id      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type signatureInfo struct {
	Signature          string          `json:"signature"`
	BlockTime          int64           `json:"blockTime"`
	ConfirmationStatus string          `json:"confirmationStatus"`
	Memo               string          `json:"memo"`
	Err                json.RawMessage `json:"err"`
}

type transactionDetail struct {
	BlockTime   int64 `json:"blockTime"`
	Meta        meta  `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []accountKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

type meta struct {
	PreBalances  []int64 `json:"preBalances"`
	PostBalances []int64 `json:"postBalances"`
}

type accountKey struct {
	Pubkey string `json:"pubkey"`
}
