package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a purchasable subscription plan from the tier catalog.
type Tier struct {
	Name         string
	PriceUSD     decimal.Decimal
	DurationDays int
	AdSlots      int
}

// Subscription is a user's current entitlement. One row per user; sequential
// purchases extend ExpiresAt rather than overwrite it.
type Subscription struct {
	UserId    int64     `db:"user_id"`
	Tier      string    `db:"tier"`
	ExpiresAt time.Time `db:"expires_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AdSlot is one provisioned posting slot. Slots are numbered 1..N per user
// so re-provisioning the same tier is a no-op.
type AdSlot struct {
	Id         int64     `db:"id"`
	UserId     int64     `db:"user_id"`
	SlotNumber int       `db:"slot_number"`
	CreatedAt  time.Time `db:"created_at"`
}

// Activation is the audit record of a completed payment being applied to a
// subscription. Its primary key on payment_id backs the exactly-once guard.
type Activation struct {
	PaymentId   string          `db:"payment_id"`
	UserId      int64           `db:"user_id"`
	Tier        string          `db:"tier"`
	UsdValue    decimal.Decimal `db:"usd_value"`
	ActivatedAt time.Time       `db:"activated_at"`
}
