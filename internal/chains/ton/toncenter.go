package ton

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
)

var _ chains.Provider = (*ToncenterProvider)(nil)

// ToncenterProvider is the fallback TON source. It speaks the Toncenter v2
// getTransactions API, which reports raw messages instead of grouped events
// and base64-encodes text comments.
type ToncenterProvider struct {
	name    string
	baseUrl string
	apiKey  string
	client  *http.Client
}

func NewToncenterProvider(name, baseUrl, apiKey string) *ToncenterProvider {
	return &ToncenterProvider{
		name:    name,
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (p *ToncenterProvider) Name() string {
	return p.name
}

func (p *ToncenterProvider) RecentTransactions(ctx context.Context, address string, limit int) ([]chains.Transaction, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := p.baseUrl + "/api/v2/getTransactions?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("toncenter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("toncenter returned status %d", resp.StatusCode)
	}

	var payload toncenterResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode toncenter response: %w", err)
	}
	if !payload.Ok {
		return nil, fmt.Errorf("toncenter error %d: %s", payload.Code, payload.Error)
	}

	account := normalizeAddr(address)

	txs := make([]chains.Transaction, 0, len(payload.Result))
	for _, raw := range payload.Result {
		if len(txs) >= limit {
			break
		}

		tx, ok := normalizeToncenterTx(raw, account)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func normalizeToncenterTx(raw toncenterTx, account string) (chains.Transaction, bool) {
	// An inbound transfer arrives as the in_msg; wallet-initiated sends
	// show up with an external in_msg (no source) and value 0.
	value, err := strconv.ParseInt(raw.InMsg.Value, 10, 64)
	if err != nil || raw.InMsg.Source == "" {
		value = 0
	}

	direction := chains.DirectionOutbound
	if value > 0 && normalizeAddr(raw.InMsg.Destination) == account {
		direction = chains.DirectionInbound
	}

	return chains.Transaction{
		Hash:      raw.TransactionId.Hash,
		Amount:    decimal.New(value, nanotonExponent),
		Direction: direction,
		// Anything Toncenter lists is already in a final block.
		Confirmations: 1,
		Timestamp:     time.Unix(raw.Utime, 0).UTC(),
		Memo:          decodeComment(raw.InMsg.MsgData),
	}, true
}

// decodeComment extracts the text comment from an inbound message body.
// Toncenter base64-encodes msg.dataText payloads.
func decodeComment(data msgData) string {
	if data.Type != "msg.dataText" || data.Text == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(data.Text)
	if err != nil {
		return ""
	}
	return string(decoded)
}

type toncenterResponse struct {
	Ok     bool          `json:"ok"`
	Code   int           `json:"code,omitempty"`
	Error  string        `json:"error,omitempty"`
	Result []toncenterTx `json:"result"`
}

type toncenterTx struct {
	TransactionId transactionId `json:"transaction_id"`
	Utime         int64         `json:"utime"`
	InMsg         message       `json:"in_msg"`
}

type transactionId struct {
	Hash string `json:"hash"`
	Lt   string `json:"lt"`
}

type message struct {
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Value       string  `json:"value"`
	MsgData     msgData `json:"msg_data"`
}

type msgData struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}
