package bitcoin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
)

const testAddress = "bc1qdepositxyz"

func newTestProvider(t *testing.T, txsJSON string) *EsploraProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/tip/height", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "100")
	})
	mux.HandleFunc("/address/"+testAddress+"/txs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, txsJSON)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewEsploraProvider("test-esplora", server.URL)
}

func TestRecentTransactions_InboundDeposit(t *testing.T) {
	provider := newTestProvider(t, `[
		{
			"txid": "aa11",
			"status": {"confirmed": true, "block_height": 99, "block_time": 1700000000},
			"vin": [{"prevout": {"scriptpubkey_address": "bc1qsomeoneelse", "value": 200000000}}],
			"vout": [
				{"scriptpubkey_address": "`+testAddress+`", "value": 150000000},
				{"scriptpubkey_address": "bc1qsomeoneelse", "value": 49000000}
			]
		}
	]`)

	txs, err := provider.RecentTransactions(context.Background(), testAddress, 15)
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
	if !tx.Amount.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected 1.5 BTC, got %s", tx.Amount.String())
	}
	if tx.Confirmations != 2 {
		t.Errorf("expected 2 confirmations at tip 100 for height 99, got %d", tx.Confirmations)
	}
	if tx.Hash != "aa11" {
		t.Errorf("expected hash aa11, got %s", tx.Hash)
	}
}

func TestRecentTransactions_SelfSpendIsOutbound(t *testing.T) {
	// Change returning to the deposit address must not look like a deposit.
	provider := newTestProvider(t, `[
		{
			"txid": "bb22",
			"status": {"confirmed": true, "block_height": 100, "block_time": 1700000100},
			"vin": [{"prevout": {"scriptpubkey_address": "`+testAddress+`", "value": 100000000}}],
			"vout": [
				{"scriptpubkey_address": "bc1qmerchant", "value": 60000000},
				{"scriptpubkey_address": "`+testAddress+`", "value": 39000000}
			]
		}
	]`)

	txs, err := provider.RecentTransactions(context.Background(), testAddress, 15)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if txs[0].Direction != chains.DirectionOutbound {
		t.Errorf("expected outbound for self-spend, got %s", txs[0].Direction)
	}
}

func TestRecentTransactions_UnconfirmedHasZeroConfirmations(t *testing.T) {
	provider := newTestProvider(t, `[
		{
			"txid": "cc33",
			"status": {"confirmed": false},
			"vin": [{"prevout": {"scriptpubkey_address": "bc1qsomeoneelse", "value": 10000000}}],
			"vout": [{"scriptpubkey_address": "`+testAddress+`", "value": 10000000}]
		}
	]`)

	txs, err := provider.RecentTransactions(context.Background(), testAddress, 15)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if txs[0].Confirmations != 0 {
		t.Errorf("expected 0 confirmations for mempool transfer, got %d", txs[0].Confirmations)
	}
	if txs[0].Timestamp.IsZero() {
		t.Error("expected a usable timestamp for mempool transfer")
	}
}

func TestRecentTransactions_RespectsLimit(t *testing.T) {
	provider := newTestProvider(t, `[
		{"txid": "t1", "status": {"confirmed": true, "block_height": 100, "block_time": 1}, "vin": [], "vout": []},
		{"txid": "t2", "status": {"confirmed": true, "block_height": 99, "block_time": 1}, "vin": [], "vout": []},
		{"txid": "t3", "status": {"confirmed": true, "block_height": 98, "block_time": 1}, "vin": [], "vout": []}
	]`)

	txs, err := provider.RecentTransactions(context.Background(), testAddress, 2)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("expected limit of 2 to apply, got %d", len(txs))
	}
}
