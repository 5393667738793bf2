package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"
	"github.com/i92tele/my-1stproject-sub000/internal/notify"
	"github.com/i92tele/my-1stproject-sub000/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// exactMatchBand is how far a deposit's USD value may drift from the
	// purchased tier's price while still counting as that tier.
	exactMatchBand = decimal.NewFromInt(5)
	// tierBand bounds nearest-tier inference. Beyond it the money's purpose
	// is ambiguous and a human decides.
	tierBand = decimal.NewFromInt(15)
)

// ReconciliationError reports a settled deposit whose USD value fits no
// tier. The payment stays completed; resolution is manual by design.
type ReconciliationError struct {
	PaymentId string
	UserId    int64
	UsdValue  decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment %s: usd value %s fits no tier, manual reconciliation required",
		e.PaymentId, e.UsdValue.StringFixed(2))
}

// PriceSource is what the activator needs from the price oracle.
type PriceSource interface {
	GetPriceUSD(ctx context.Context, asset models.AssetCode) (decimal.Decimal, error)
}

// Activator sizes a settled deposit to a tier and provisions the user's
// entitlement. It is called only from the pending-to-completed transition.
type Activator struct {
	store    store.SubscriptionStore
	prices   PriceSource
	tiers    models.TierCatalog
	notifier notify.Notifier
}

func NewActivator(subStore store.SubscriptionStore, prices PriceSource, tiers models.TierCatalog, notifier notify.Notifier) *Activator {
	return &Activator{
		store:    subStore,
		prices:   prices,
		tiers:    tiers,
		notifier: notifier,
	}
}

// Activate values the detected deposit in USD, resolves the tier, and applies
// the subscription extension exactly once per payment. A duplicate call for
// an already-activated payment is a no-op success.
func (a *Activator) Activate(ctx context.Context, payment *models.PaymentRequest) (*models.Subscription, error) {
	usdValue := a.usdValue(ctx, payment)

	tier, ok := a.resolveTier(payment.Tier, usdValue)
	if !ok {
		recErr := &ReconciliationError{
			PaymentId: payment.PaymentId,
			UserId:    payment.UserId,
			UsdValue:  usdValue,
		}

		zap.L().Error("Deposit fits no tier, flagging for reconciliation",
			zap.String("payment_id", payment.PaymentId),
			zap.Int64("user_id", payment.UserId),
			zap.String("usd_value", usdValue.StringFixed(2)))

		a.alert(ctx, "Payment needs manual reconciliation", fmt.Sprintf(
			"Payment %s (user %d) settled at $%s but no tier is within $%s of that value. The payment stays completed; assign the entitlement manually.",
			payment.PaymentId, payment.UserId, usdValue.StringFixed(2), tierBand.String()))

		return nil, recErr
	}

	sub, err := a.store.ApplyActivation(ctx, store.ApplyActivationParams{
		PaymentId:    payment.PaymentId,
		UserId:       payment.UserId,
		Tier:         tier.Name,
		UsdValue:     usdValue,
		DurationDays: tier.DurationDays,
		AdSlots:      tier.AdSlots,
		Now:          time.Now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateActivation) {
			zap.L().Info("Payment already activated, skipping",
				zap.String("payment_id", payment.PaymentId))
			return a.store.GetSubscription(ctx, payment.UserId)
		}

		a.alert(ctx, "Subscription activation failed", fmt.Sprintf(
			"Payment %s (user %d) completed but activation failed: %v. Retry or provision manually.",
			payment.PaymentId, payment.UserId, err))

		return nil, fmt.Errorf("failed to apply activation for payment %s: %w", payment.PaymentId, err)
	}

	zap.L().Info("Subscription activated",
		zap.String("payment_id", payment.PaymentId),
		zap.Int64("user_id", payment.UserId),
		zap.String("tier", tier.Name),
		zap.String("usd_value", usdValue.StringFixed(2)),
		zap.Time("expires_at", sub.ExpiresAt))

	return sub, nil
}

// usdValue prices the detected amount live, falling back to the quoted USD
// size when no price is available. Money has already arrived at this point;
// failing activation over a price lookup would strand it.
func (a *Activator) usdValue(ctx context.Context, payment *models.PaymentRequest) decimal.Decimal {
	price, err := a.prices.GetPriceUSD(ctx, payment.AssetCode)
	if err != nil {
		zap.L().Warn("No live price for settled payment, using quoted USD value",
			zap.String("payment_id", payment.PaymentId),
			zap.String("asset", string(payment.AssetCode)),
			zap.Error(err))
		return payment.ExpectedAmountUSD
	}
	return payment.DetectedAmount.Mul(price)
}

// resolveTier prefers the purchased tier when the deposit lands within the
// exact-match band of its price, then falls back to the nearest tier inside
// the wider band.
func (a *Activator) resolveTier(purchased string, usdValue decimal.Decimal) (models.Tier, bool) {
	if tier, ok := a.tiers[purchased]; ok {
		if usdValue.Sub(tier.PriceUSD).Abs().LessThanOrEqual(exactMatchBand) {
			return tier, true
		}
	}

	var nearest models.Tier
	var nearestDiff decimal.Decimal
	found := false
	for _, tier := range a.tiers {
		diff := usdValue.Sub(tier.PriceUSD).Abs()
		if diff.GreaterThan(tierBand) {
			continue
		}
		if !found || diff.LessThan(nearestDiff) {
			nearest = tier
			nearestDiff = diff
			found = true
		}
	}

	return nearest, found
}

func (a *Activator) alert(ctx context.Context, subject, body string) {
	if err := a.notifier.Alert(ctx, subject, body); err != nil {
		zap.L().Error("Failed to deliver operator alert",
			zap.String("subject", subject),
			zap.Error(err))
	}
}
