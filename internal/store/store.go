package store

import (
	"context"
	"errors"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrDuplicatePayment     = errors.New("duplicate payment id")
	ErrSubscriptionNotFound = errors.New("no subscription for user")
	ErrDuplicateActivation  = errors.New("payment already activated")
)

// MarkCompletedParams carries the forensic fields written when a pending
// payment transitions to completed.
type MarkCompletedParams struct {
	PaymentId      string
	DetectedTxHash string
	DetectedAmount decimal.Decimal
	DetectedAt     time.Time
}

// ApplyActivationParams carries everything needed to apply one completed
// payment to a user's subscription in a single atomic unit.
type ApplyActivationParams struct {
	PaymentId    string
	UserId       int64
	Tier         string
	UsdValue     decimal.Decimal
	DurationDays int
	AdSlots      int
	Now          time.Time
}

// PaymentStore defines the persistence contract for payment requests.
// Save and the Mark* transitions must be atomic per row.
type PaymentStore interface {
	SavePayment(ctx context.Context, p *models.PaymentRequest) error
	GetPayment(ctx context.Context, paymentId string) (*models.PaymentRequest, error)
	ListPaymentsByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.PaymentRequest, error)

	// MarkCompleted transitions a pending payment to completed and records
	// the detected transaction. Returns false when the row was no longer
	// pending, without error; terminal rows are never overwritten.
	MarkCompleted(ctx context.Context, params MarkCompletedParams) (bool, error)

	// MarkExpired transitions a pending payment to expired. Returns false
	// when the row was no longer pending.
	MarkExpired(ctx context.Context, paymentId string) (bool, error)

	// ExpireOverdue flips every pending payment whose expiry has passed and
	// returns how many rows changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SubscriptionStore defines the persistence contract for entitlements.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userId int64) (*models.Subscription, error)
	CountAdSlots(ctx context.Context, userId int64) (int, error)
	GetActivation(ctx context.Context, paymentId string) (*models.Activation, error)

	// ApplyActivation atomically records the activation, extends the
	// subscription from the later of now and the current expiry, and
	// provisions ad slots 1..AdSlots idempotently. A payment that was
	// already activated returns ErrDuplicateActivation and changes nothing.
	ApplyActivation(ctx context.Context, params ApplyActivationParams) (*models.Subscription, error)
}

// Store is the combined contract the service layer wires against.
type Store interface {
	PaymentStore
	SubscriptionStore

	Close()
}
