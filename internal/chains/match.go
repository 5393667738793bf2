package chains

import (
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// MatchRules holds the knobs shared by every chain verifier.
type MatchRules struct {
	// Tolerance is the relative amount slack, e.g. 0.03 for 3%.
	Tolerance decimal.Decimal
	// SmallAmountTolerance widens the slack for expected amounts below one
	// whole unit, where network fees eat a larger relative share.
	SmallAmountTolerance decimal.Decimal
	// Window is the half-width of the creation-time window used by
	// amount-based attribution. Bounds are inclusive.
	Window time.Duration
}

// FirstMatch walks transfers newest-first and returns the first one that
// settles the payment, or nil when none does.
//
// Memo attribution trusts the memo alone: a transfer carrying the payment's
// memo token is the payment, whatever the amount, because the token exists
// only in the checkout the user was shown. Amount attribution requires the
// transfer to land inside the time window and within tolerance of the
// expected amount. Both paths require the confirmation threshold.
func (r MatchRules) FirstMatch(payment *models.PaymentRequest, txs []Transaction) *Transaction {
	for i := range txs {
		tx := &txs[i]

		if tx.Direction != DirectionInbound {
			continue
		}

		switch payment.AttributionMethod {
		case models.AttributionUniqueMemo:
			if !memoMatches(payment.Memo, tx.Memo) {
				continue
			}
		case models.AttributionAmountTimeWindow:
			if !r.inWindow(payment.CreatedAt, tx.Timestamp) {
				continue
			}
			if !r.amountWithinTolerance(payment.ExpectedAmountCrypto, tx.Amount) {
				continue
			}
		default:
			continue
		}

		if tx.Confirmations < payment.RequiredConfirmations {
			continue
		}

		return tx
	}

	return nil
}

func memoMatches(want, got string) bool {
	want = strings.TrimSpace(want)
	got = strings.TrimSpace(got)
	return want != "" && want == got
}

func (r MatchRules) inWindow(createdAt, txTime time.Time) bool {
	diff := txTime.Sub(createdAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= r.Window
}

func (r MatchRules) amountWithinTolerance(expected, actual decimal.Decimal) bool {
	if expected.LessThanOrEqual(decimal.Zero) {
		return false
	}

	tolerance := r.Tolerance
	if expected.LessThan(decimal.NewFromInt(1)) && r.SmallAmountTolerance.GreaterThan(tolerance) {
		tolerance = r.SmallAmountTolerance
	}

	slack := expected.Mul(tolerance)
	lower := expected.Sub(slack)
	upper := expected.Add(slack)

	return actual.GreaterThanOrEqual(lower) && actual.LessThanOrEqual(upper)
}
