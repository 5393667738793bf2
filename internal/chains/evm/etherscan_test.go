package evm

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
	depositAddr  = "0x52908400098527886E0F7030069857D2E4169EE7"
	usdtContract = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
)

func newTestServer(t *testing.T, body string, wantQuery map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, want := range wantQuery {
			if got := r.URL.Query().Get(key); got != want {
				t.Errorf("query %s: expected %q, got %q", key, want, got)
			}
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestRecentTransactions_NativeInbound(t *testing.T) {
	// 0.25 ETH in wei, received by the deposit address.
	body := `{"status":"1","message":"OK","result":[
		{"hash":"0xaaa","from":"0xpayer","to":"` + depositAddr + `","value":"250000000000000000","timeStamp":"1700000000","confirmations":"12","isError":"0"}
	]}`
	server := newTestServer(t, body, map[string]string{"action": "txlist", "sort": "desc"})

	provider := NewEtherscanProvider("etherscan", server.URL, "test-key")

	txs, err := provider.RecentTransactions(context.Background(), depositAddr, 15)
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
	if !tx.Amount.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("expected 0.25 ETH, got %s", tx.Amount.String())
	}
	if tx.Confirmations != 12 {
		t.Errorf("expected 12 confirmations, got %d", tx.Confirmations)
	}
}

func TestRecentTransactions_CaseInsensitiveAddressMatch(t *testing.T) {
	lower := "0x52908400098527886e0f7030069857d2e4169ee7"
	body := `{"status":"1","message":"OK","result":[
		{"hash":"0xbbb","from":"0xpayer","to":"` + lower + `","value":"1000000000000000000","timeStamp":"1700000000","confirmations":"3","isError":"0"}
	]}`
	server := newTestServer(t, body, nil)

	provider := NewEtherscanProvider("etherscan", server.URL, "")

	txs, err := provider.RecentTransactions(context.Background(), depositAddr, 15)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if txs[0].Direction != chains.DirectionInbound {
		t.Error("expected checksummed and lowercase hex to refer to the same account")
	}
}

func TestRecentTransactions_TokenTransfer(t *testing.T) {
	// 45.5 USDT with 6 decimals.
	body := `{"status":"1","message":"OK","result":[
		{"hash":"0xccc","from":"0xpayer","to":"` + depositAddr + `","value":"45500000","timeStamp":"1700000000","confirmations":"7","isError":"0"}
	]}`
	server := newTestServer(t, body, map[string]string{
		"action":          "tokentx",
		"contractaddress": usdtContract,
	})

	provider := NewTokenProvider("etherscan-usdt", server.URL, "", usdtContract, 6)

	txs, err := provider.RecentTransactions(context.Background(), depositAddr, 15)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("45.5")) {
		t.Errorf("expected 45.5 USDT, got %s", txs[0].Amount.String())
	}
}

func TestRecentTransactions_NoTransactionsFoundIsEmpty(t *testing.T) {
	body := `{"status":"0","message":"No transactions found","result":[]}`
	server := newTestServer(t, body, nil)

	provider := NewEtherscanProvider("etherscan", server.URL, "")

	txs, err := provider.RecentTransactions(context.Background(), depositAddr, 15)
	if err != nil {
		t.Fatalf("expected empty success, got error: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no transfers, got %d", len(txs))
	}
}

func TestRecentTransactions_RateLimitIsError(t *testing.T) {
	body := `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`
	server := newTestServer(t, body, nil)

	provider := NewEtherscanProvider("etherscan", server.URL, "")

	if _, err := provider.RecentTransactions(context.Background(), depositAddr, 15); err == nil {
		t.Fatal("expected rate limit response to surface as an error")
	}
}

func TestRecentTransactions_SkipsFailedExecutions(t *testing.T) {
	body := `{"status":"1","message":"OK","result":[
		{"hash":"0xddd","from":"0xpayer","to":"` + depositAddr + `","value":"1000000000000000000","timeStamp":"1700000000","confirmations":"3","isError":"1"},
		{"hash":"0xeee","from":"0xpayer","to":"` + depositAddr + `","value":"1000000000000000000","timeStamp":"1700000000","confirmations":"3","isError":"0"}
	]}`
	server := newTestServer(t, body, nil)

	provider := NewEtherscanProvider("etherscan", server.URL, "")

	txs, err := provider.RecentTransactions(context.Background(), depositAddr, 15)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if len(txs) != 1 || txs[0].Hash != "0xeee" {
		t.Errorf("expected only the successful execution, got %+v", txs)
	}
}
