package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePaymentCreated         Type = "payment_created"
	TypePaymentCompleted       Type = "payment_completed"
	TypePaymentExpired         Type = "payment_expired"
	TypeSubscriptionActivated  Type = "subscription_activated"
	TypeReconciliationRequired Type = "reconciliation_required"
)

// PaymentEvent is the lifecycle record published for downstream consumers
// (accounting, analytics, the ads backend).
type PaymentEvent struct {
	Type      Type            `json:"type"`
	PaymentId string          `json:"payment_id"`
	UserId    int64           `json:"user_id"`
	AssetCode string          `json:"asset_code"`
	Tier      string          `json:"tier"`
	TxHash    string          `json:"tx_hash,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
	UsdValue  decimal.Decimal `json:"usd_value,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Emitter interface {
	Emit(ctx context.Context, event PaymentEvent) error
	Close() error
}
