package subscription

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/database"
	"github.com/i92tele/my-1stproject-sub000/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

type stubPrices struct {
	price decimal.Decimal
	err   error
}

func (s stubPrices) GetPriceUSD(ctx context.Context, asset models.AssetCode) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Decimal{}, s.err
	}
	return s.price, nil
}

type recordingNotifier struct {
	subjects []string
}

func (r *recordingNotifier) Alert(ctx context.Context, subject, body string) error {
	r.subjects = append(r.subjects, subject)
	return nil
}

func testTiers() models.TierCatalog {
	return models.TierCatalog{
		"basic": {Name: "basic", PriceUSD: decimal.NewFromInt(15), DurationDays: 30, AdSlots: 1},
		"pro":   {Name: "pro", PriceUSD: decimal.NewFromInt(30), DurationDays: 90, AdSlots: 3},
	}
}

func setupActivator(t *testing.T, prices PriceSource) (*Activator, *database.Service, *recordingNotifier, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	service := database.NewServiceWithDb(db)
	if err := service.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	notifier := &recordingNotifier{}
	activator := NewActivator(service, prices, testTiers(), notifier)

	return activator, service, notifier, func() { db.Close() }
}

func completedPayment(tier string, detected string) *models.PaymentRequest {
	now := time.Now().UTC()
	return &models.PaymentRequest{
		PaymentId:         "ton-7f3a9c21",
		UserId:            12345,
		AssetCode:         models.AssetTON,
		Tier:              tier,
		ExpectedAmountUSD: decimal.NewFromInt(15),
		Status:            models.StatusCompleted,
		DetectedTxHash:    "txhash",
		DetectedAmount:    decimal.RequireFromString(detected),
		DetectedAt:        now,
		CreatedAt:         now.Add(-5 * time.Minute),
		ExpiresAt:         now.Add(25 * time.Minute),
	}
}

func TestActivate_BasicTier(t *testing.T) {
	// 3.09 TON at $5 is $15.45, within $5 of the basic tier's $15.
	activator, service, notifier, cleanup := setupActivator(t, stubPrices{price: decimal.NewFromInt(5)})
	defer cleanup()

	ctx := context.Background()

	sub, err := activator.Activate(ctx, completedPayment("basic", "3.09"))
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if sub.Tier != "basic" {
		t.Errorf("expected tier basic, got %s", sub.Tier)
	}

	wantExpiry := time.Now().UTC().AddDate(0, 0, 30)
	if diff := sub.ExpiresAt.Sub(wantExpiry); diff < -2*time.Second || diff > 2*time.Second {
		t.Errorf("expected expiry about 30 days out, got %s", sub.ExpiresAt)
	}

	slots, err := service.CountAdSlots(ctx, 12345)
	if err != nil {
		t.Fatalf("CountAdSlots failed: %v", err)
	}
	if slots != 1 {
		t.Errorf("expected 1 ad slot, got %d", slots)
	}
	if len(notifier.subjects) != 0 {
		t.Errorf("expected no alerts, got %v", notifier.subjects)
	}

	audit, err := service.GetActivation(ctx, "ton-7f3a9c21")
	if err != nil {
		t.Fatalf("GetActivation failed: %v", err)
	}
	if audit == nil {
		t.Fatal("expected an activation audit row")
	}
	if !audit.UsdValue.Equal(decimal.RequireFromString("15.45")) {
		t.Errorf("expected usd value 15.45, got %s", audit.UsdValue.String())
	}
}

func TestActivate_DuplicateIsNoOpSuccess(t *testing.T) {
	activator, service, _, cleanup := setupActivator(t, stubPrices{price: decimal.NewFromInt(5)})
	defer cleanup()

	ctx := context.Background()
	payment := completedPayment("basic", "3.09")

	first, err := activator.Activate(ctx, payment)
	if err != nil {
		t.Fatalf("first Activate failed: %v", err)
	}

	second, err := activator.Activate(ctx, payment)
	if err != nil {
		t.Fatalf("duplicate Activate must succeed as a no-op, got: %v", err)
	}
	if !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Errorf("duplicate activation moved expiry from %s to %s", first.ExpiresAt, second.ExpiresAt)
	}

	slots, err := service.CountAdSlots(ctx, 12345)
	if err != nil {
		t.Fatalf("CountAdSlots failed: %v", err)
	}
	if slots != 1 {
		t.Errorf("expected ad slots unchanged at 1, got %d", slots)
	}
}

func TestActivate_ReconciliationRequired(t *testing.T) {
	// 43 TON at $5 is $215, $185 past the highest tier: nothing to size to.
	activator, service, notifier, cleanup := setupActivator(t, stubPrices{price: decimal.NewFromInt(5)})
	defer cleanup()

	ctx := context.Background()

	_, err := activator.Activate(ctx, completedPayment("basic", "43"))

	var recErr *ReconciliationError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected ReconciliationError, got %v", err)
	}
	if !recErr.UsdValue.Equal(decimal.NewFromInt(215)) {
		t.Errorf("expected usd value 215, got %s", recErr.UsdValue.String())
	}
	if len(notifier.subjects) != 1 {
		t.Fatalf("expected one operator alert, got %d", len(notifier.subjects))
	}

	// Nothing was provisioned.
	slots, err := service.CountAdSlots(ctx, 12345)
	if err != nil {
		t.Fatalf("CountAdSlots failed: %v", err)
	}
	if slots != 0 {
		t.Errorf("expected no ad slots, got %d", slots)
	}
}

func TestActivate_NearestTierWithinBand(t *testing.T) {
	// 7 TON at $5 is $35: too far from basic ($15), but within $15 of pro
	// ($30), so the deposit sizes to pro even though basic was purchased.
	activator, _, _, cleanup := setupActivator(t, stubPrices{price: decimal.NewFromInt(5)})
	defer cleanup()

	sub, err := activator.Activate(context.Background(), completedPayment("basic", "7"))
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if sub.Tier != "pro" {
		t.Errorf("expected nearest tier pro, got %s", sub.Tier)
	}
}

func TestActivate_PriceFailureFallsBackToQuotedValue(t *testing.T) {
	activator, _, _, cleanup := setupActivator(t, stubPrices{err: errors.New("price api down")})
	defer cleanup()

	// Quoted at $15; the detected amount is ignored without a live price.
	sub, err := activator.Activate(context.Background(), completedPayment("basic", "3.09"))
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if sub.Tier != "basic" {
		t.Errorf("expected quoted value to size the basic tier, got %s", sub.Tier)
	}
}

func TestActivate_SequentialPurchasesStack(t *testing.T) {
	activator, _, _, cleanup := setupActivator(t, stubPrices{price: decimal.NewFromInt(5)})
	defer cleanup()

	ctx := context.Background()

	first, err := activator.Activate(ctx, completedPayment("basic", "3.09"))
	if err != nil {
		t.Fatalf("first Activate failed: %v", err)
	}

	renewal := completedPayment("basic", "3.0")
	renewal.PaymentId = "ton-renewal01"

	second, err := activator.Activate(ctx, renewal)
	if err != nil {
		t.Fatalf("second Activate failed: %v", err)
	}

	wantExpiry := first.ExpiresAt.AddDate(0, 0, 30)
	if diff := second.ExpiresAt.Sub(wantExpiry); diff < -2*time.Second || diff > 2*time.Second {
		t.Errorf("expected renewal to stack onto %s, got %s", wantExpiry, second.ExpiresAt)
	}
}
