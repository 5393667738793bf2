package ton

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
)

const (
	tonDepositRaw = "0:3333333333333333333333333333333333333333333333333333333333333333"
	tonPayerRaw   = "0:4444444444444444444444444444444444444444444444444444444444444444"
)

func newTonApiTest(t *testing.T, body string) *TonApiProvider {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	return NewTonApiProvider("tonapi", server.URL, "test-key")
}

func TestTonApi_InboundTransferWithComment(t *testing.T) {
	provider := newTonApiTest(t, `{"events":[
		{
			"event_id": "ev1",
			"timestamp": 1700000000,
			"in_progress": false,
			"actions": [{
				"type": "TonTransfer",
				"status": "ok",
				"TonTransfer": {
					"sender": {"address": "`+tonPayerRaw+`"},
					"recipient": {"address": "`+tonDepositRaw+`"},
					"amount": 3090000000,
					"comment": "ton-7f3a9c21"
				}
			}]
		}
	]}`)

	txs, err := provider.RecentTransactions(context.Background(), tonDepositRaw, 10)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(txs))
	}

	tx := txs[0]
	if tx.Direction != chains.DirectionInbound {
		t.Errorf("expected inbound, got %s", tx.Direction)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("3.09")) {
		t.Errorf("expected 3.09 TON, got %s", tx.Amount.String())
	}
	if tx.Memo != "ton-7f3a9c21" {
		t.Errorf("expected comment preserved, got %q", tx.Memo)
	}
	if tx.Confirmations != 1 {
		t.Errorf("expected settled event to count as 1 confirmation, got %d", tx.Confirmations)
	}
}

func TestTonApi_InProgressEventNotConfirmed(t *testing.T) {
	provider := newTonApiTest(t, `{"events":[
		{
			"event_id": "ev2",
			"timestamp": 1700000000,
			"in_progress": true,
			"actions": [{
				"type": "TonTransfer",
				"status": "ok",
				"TonTransfer": {
					"sender": {"address": "`+tonPayerRaw+`"},
					"recipient": {"address": "`+tonDepositRaw+`"},
					"amount": 1000000000
				}
			}]
		}
	]}`)

	txs, err := provider.RecentTransactions(context.Background(), tonDepositRaw, 10)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if txs[0].Confirmations != 0 {
		t.Errorf("expected in-progress event to have 0 confirmations, got %d", txs[0].Confirmations)
	}
}

func TestTonApi_OutboundAndUnrelatedActions(t *testing.T) {
	provider := newTonApiTest(t, `{"events":[
		{
			"event_id": "ev3",
			"timestamp": 1700000000,
			"actions": [
				{
					"type": "TonTransfer",
					"status": "ok",
					"TonTransfer": {
						"sender": {"address": "`+tonDepositRaw+`"},
						"recipient": {"address": "`+tonPayerRaw+`"},
						"amount": 500000000
					}
				},
				{"type": "JettonSwap", "status": "ok"}
			]
		}
	]}`)

	txs, err := provider.RecentTransactions(context.Background(), tonDepositRaw, 10)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected only the transfer action, got %d", len(txs))
	}
	if txs[0].Direction != chains.DirectionOutbound {
		t.Errorf("expected outbound, got %s", txs[0].Direction)
	}
}

func TestNormalizeAddr_FriendlyAndRawAgree(t *testing.T) {
	// Bounceable form of the all-zeros account (the well-known burn address).
	friendly := "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c"
	raw := "0:0000000000000000000000000000000000000000000000000000000000000000"

	if got := normalizeAddr(friendly); got != raw {
		t.Errorf("expected friendly form to normalize to %s, got %s", raw, got)
	}
	if got := normalizeAddr(raw); got != raw {
		t.Errorf("expected raw form to stay %s, got %s", raw, got)
	}
}
