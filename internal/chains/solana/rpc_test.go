package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
)

const solDepositAddr = "oQPnhXAbLbMuKHESaGrbXT17CyvWCpLyERSJA9HCYd7"

// newTestRPC serves canned responses per JSON-RPC method.
func newTestRPC(t *testing.T, responses map[string]string) *RPCProvider {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad rpc request: %v", err)
			return
		}
		body, ok := responses[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %s", req.Method)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":%s}`, body)
	}))
	t.Cleanup(server.Close)

	return NewRPCProvider("test-rpc", server.URL)
}

func TestRecentTransactions_InboundWithMemo(t *testing.T) {
	provider := newTestRPC(t, map[string]string{
		"getSignaturesForAddress": `[
			{"signature":"sig1","blockTime":1700000000,"confirmationStatus":"finalized","memo":"[12] sol-a1b2c3d4","err":null}
		]`,
		"getTransaction": `{
			"blockTime":1700000000,
			"meta":{"preBalances":[5000000000,1000000000],"postBalances":[4500000000,1500000000]},
			"transaction":{"message":{"accountKeys":[
				{"pubkey":"payerpayerpayer"},
				{"pubkey":"` + solDepositAddr + `"}
			]}}
		}`,
	})

	txs, err := provider.RecentTransactions(context.Background(), solDepositAddr, 10)
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
	if !tx.Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected 0.5 SOL, got %s", tx.Amount.String())
	}
	if tx.Confirmations != 32 {
		t.Errorf("expected finalized to count as 32 confirmations, got %d", tx.Confirmations)
	}
	if tx.Memo != "sol-a1b2c3d4" {
		t.Errorf("expected memo prefix stripped, got %q", tx.Memo)
	}
}

func TestRecentTransactions_SkipsFailedExecutions(t *testing.T) {
	provider := newTestRPC(t, map[string]string{
		"getSignaturesForAddress": `[
			{"signature":"sigbad","blockTime":1700000000,"confirmationStatus":"finalized","memo":"","err":{"InstructionError":[0,"Custom"]}}
		]`,
	})

	txs, err := provider.RecentTransactions(context.Background(), solDepositAddr, 10)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected failed execution to be skipped, got %d transfers", len(txs))
	}
}

func TestRecentTransactions_PrunedTransactionSkipped(t *testing.T) {
	provider := newTestRPC(t, map[string]string{
		"getSignaturesForAddress": `[
			{"signature":"sigold","blockTime":1600000000,"confirmationStatus":"finalized","memo":"","err":null}
		]`,
		"getTransaction": `null`,
	})

	txs, err := provider.RecentTransactions(context.Background(), solDepositAddr, 10)
	if err != nil {
		t.Fatalf("RecentTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected pruned transaction to be skipped, got %d transfers", len(txs))
	}
}

func TestRecentTransactions_RPCErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"node is behind"}}`)
	}))
	t.Cleanup(server.Close)

	provider := NewRPCProvider("test-rpc", server.URL)

	if _, err := provider.RecentTransactions(context.Background(), solDepositAddr, 10); err == nil {
		t.Fatal("expected rpc error to surface")
	}
}

func TestConfirmationsFor(t *testing.T) {
	cases := map[string]int64{
		"finalized": 32,
		"confirmed": 1,
		"processed": 0,
		"":          0,
	}
	for status, want := range cases {
		if got := confirmationsFor(status); got != want {
			t.Errorf("confirmationsFor(%q): expected %d, got %d", status, want, got)
		}
	}
}
