package chains

import (
	"testing"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/shopspring/decimal"
)

func testRules() MatchRules {
	return MatchRules{
		Tolerance:            decimal.NewFromFloat(0.03),
		SmallAmountTolerance: decimal.NewFromFloat(0.05),
		Window:               30 * time.Minute,
	}
}

func windowPayment(createdAt time.Time, expected string) *models.PaymentRequest {
	return &models.PaymentRequest{
		PaymentId:             "btc-test",
		AssetCode:             models.AssetBTC,
		ExpectedAmountCrypto:  decimal.RequireFromString(expected),
		AttributionMethod:     models.AttributionAmountTimeWindow,
		RequiredConfirmations: 1,
		CreatedAt:             createdAt,
	}
}

func memoPayment(createdAt time.Time, memo string) *models.PaymentRequest {
	return &models.PaymentRequest{
		PaymentId:             "ton-test",
		AssetCode:             models.AssetTON,
		ExpectedAmountCrypto:  decimal.RequireFromString("3"),
		AttributionMethod:     models.AttributionUniqueMemo,
		Memo:                  memo,
		RequiredConfirmations: 1,
		CreatedAt:             createdAt,
	}
}

func inbound(amount string, ts time.Time, confirmations int64) Transaction {
	return Transaction{
		Hash:          "hash-" + amount,
		Amount:        decimal.RequireFromString(amount),
		Direction:     DirectionInbound,
		Confirmations: confirmations,
		Timestamp:     ts,
	}
}

func TestFirstMatch_ToleranceBoundaries(t *testing.T) {
	now := time.Now()
	rules := testRules()
	payment := windowPayment(now, "100")

	// 3% above expected sits exactly on the inclusive upper bound.
	if got := rules.FirstMatch(payment, []Transaction{inbound("103", now, 1)}); got == nil {
		t.Error("expected 103 to match expected 100 at 3% tolerance")
	}

	if got := rules.FirstMatch(payment, []Transaction{inbound("103.1", now, 1)}); got != nil {
		t.Errorf("expected 103.1 to miss, matched %s", got.Hash)
	}

	if got := rules.FirstMatch(payment, []Transaction{inbound("97", now, 1)}); got == nil {
		t.Error("expected 97 to match expected 100 at 3% tolerance")
	}

	if got := rules.FirstMatch(payment, []Transaction{inbound("96.9", now, 1)}); got != nil {
		t.Errorf("expected 96.9 to miss, matched %s", got.Hash)
	}
}

func TestFirstMatch_SmallAmountToleranceFloor(t *testing.T) {
	now := time.Now()
	rules := testRules()
	payment := windowPayment(now, "0.5")

	// 0.52 is 4% over: outside 3%, inside the 5% floor for sub-unit amounts.
	if got := rules.FirstMatch(payment, []Transaction{inbound("0.52", now, 1)}); got == nil {
		t.Error("expected 5% tolerance floor to apply below one whole unit")
	}

	if got := rules.FirstMatch(payment, []Transaction{inbound("0.53", now, 1)}); got != nil {
		t.Errorf("expected 0.53 to miss even with the 5%% floor, matched %s", got.Hash)
	}
}

func TestFirstMatch_WindowBoundaries(t *testing.T) {
	now := time.Now()
	rules := testRules()
	payment := windowPayment(now, "100")

	onEdge := inbound("100", now.Add(30*time.Minute), 1)
	if got := rules.FirstMatch(payment, []Transaction{onEdge}); got == nil {
		t.Error("expected transfer exactly on the window edge to match")
	}

	pastEdge := inbound("100", now.Add(30*time.Minute+time.Second), 1)
	if got := rules.FirstMatch(payment, []Transaction{pastEdge}); got != nil {
		t.Errorf("expected transfer one second past the window to miss, matched %s", got.Hash)
	}

	beforeEdge := inbound("100", now.Add(-30*time.Minute), 1)
	if got := rules.FirstMatch(payment, []Transaction{beforeEdge}); got == nil {
		t.Error("expected transfer exactly on the lower window edge to match")
	}
}

func TestFirstMatch_MemoIgnoresAmount(t *testing.T) {
	now := time.Now()
	rules := testRules()
	payment := memoPayment(now, "ton-7f3a9c21")

	tx := inbound("50", now.Add(2*time.Hour), 1)
	tx.Memo = "ton-7f3a9c21"

	// Wrong amount, outside any window: the memo alone attributes it.
	if got := rules.FirstMatch(payment, []Transaction{tx}); got == nil {
		t.Error("expected memo match regardless of amount and timing")
	}

	tx.Memo = "ton-deadbeef"
	if got := rules.FirstMatch(payment, []Transaction{tx}); got != nil {
		t.Errorf("expected wrong memo to miss, matched %s", got.Hash)
	}
}

func TestFirstMatch_ConfirmationThreshold(t *testing.T) {
	now := time.Now()
	rules := testRules()
	payment := windowPayment(now, "100")
	payment.RequiredConfirmations = 2

	if got := rules.FirstMatch(payment, []Transaction{inbound("100", now, 1)}); got != nil {
		t.Errorf("expected under-confirmed transfer to miss, matched %s", got.Hash)
	}

	if got := rules.FirstMatch(payment, []Transaction{inbound("100", now, 2)}); got == nil {
		t.Error("expected transfer at the confirmation threshold to match")
	}
}

func TestFirstMatch_FirstInboundWins(t *testing.T) {
	now := time.Now()
	rules := testRules()
	payment := windowPayment(now, "100")

	outgoing := inbound("100", now, 5)
	outgoing.Direction = DirectionOutbound
	outgoing.Hash = "outgoing"

	newest := inbound("101", now.Add(time.Minute), 1)
	newest.Hash = "newest"
	older := inbound("100", now, 3)
	older.Hash = "older"

	got := rules.FirstMatch(payment, []Transaction{outgoing, newest, older})
	if got == nil {
		t.Fatal("expected a match")
	}
	if got.Hash != "newest" {
		t.Errorf("expected first matching transfer to win, got %s", got.Hash)
	}
}
