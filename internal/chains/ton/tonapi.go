package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
	"github.com/tonkeeper/tongo/ton"
)

// nanotonExponent converts nanoTON to whole TON: value * 10^-9.
const nanotonExponent = -9

var _ chains.Provider = (*TonApiProvider)(nil)

// TonApiProvider reads account events from TonAPI. Events arrive newest
// first and already group message chains, so a simple TonTransfer action
// scan is enough to spot deposits.
type TonApiProvider struct {
	name    string
	baseUrl string
	apiKey  string
	client  *http.Client
}

func NewTonApiProvider(name, baseUrl, apiKey string) *TonApiProvider {
	return &TonApiProvider{
		name:    name,
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (p *TonApiProvider) Name() string {
	return p.name
}

func (p *TonApiProvider) RecentTransactions(ctx context.Context, address string, limit int) ([]chains.Transaction, error) {
	account := normalizeAddr(address)

	path := fmt.Sprintf("%s/v2/accounts/%s/events?limit=%d", p.baseUrl, account, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tonapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tonapi returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tonapi response: %w", err)
	}

	txs := make([]chains.Transaction, 0, len(payload.Events))
	for _, event := range payload.Events {
		for _, action := range event.Actions {
			if action.Type != "TonTransfer" || action.TonTransfer == nil {
				continue
			}
			if action.Status != "" && action.Status != "ok" {
				continue
			}

			transfer := action.TonTransfer
			var direction chains.Direction
			switch account {
			case normalizeAddr(transfer.Recipient.Address):
				direction = chains.DirectionInbound
			case normalizeAddr(transfer.Sender.Address):
				direction = chains.DirectionOutbound
			default:
				continue
			}

			// One confirmation once the event settled: TON blocks are
			// final, there is no reorg depth to wait out.
			var confirmations int64 = 1
			if event.InProgress {
				confirmations = 0
			}

			txs = append(txs, chains.Transaction{
				Hash:          event.EventId,
				Amount:        decimal.New(transfer.Amount, nanotonExponent),
				Direction:     direction,
				Confirmations: confirmations,
				Timestamp:     time.Unix(event.Timestamp, 0).UTC(),
				Memo:          transfer.Comment,
			})

			if len(txs) >= limit {
				return txs, nil
			}
		}
	}

	return txs, nil
}

// normalizeAddr maps any TON address form (raw 0:hex, bounceable EQ…,
// non-bounceable UQ…) to the raw form so comparisons do not depend on how
// the wallet was configured. Unparseable input passes through unchanged.
func normalizeAddr(addr string) string {
	if addr == "" {
		return ""
	}
	account, err := ton.ParseAccountID(addr)
	if err != nil {
		return addr
	}
	return account.String()
}

type eventsResponse struct {
	Events []event `json:"events"`
}

type event struct {
	EventId    string   `json:"event_id"`
	Timestamp  int64    `json:"timestamp"`
	InProgress bool     `json:"in_progress"`
	Actions    []action `json:"actions"`
}

type action struct {
	Type        string       `json:"type"`
	Status      string       `json:"status"`
	TonTransfer *tonTransfer `json:"TonTransfer,omitempty"`
}

type tonTransfer struct {
	Sender    account `json:"sender"`
	Recipient account `json:"recipient"`
	Amount    int64   `json:"amount"`
	Comment   string  `json:"comment,omitempty"`
}

type account struct {
	Address string `json:"address"`
}
