/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"
	"github.com/i92tele/my-1stproject-sub000/internal/events"
	"github.com/i92tele/my-1stproject-sub000/internal/metrics"
	"github.com/i92tele/my-1stproject-sub000/internal/models"
	"github.com/i92tele/my-1stproject-sub000/internal/store"
	"github.com/i92tele/my-1stproject-sub000/internal/subscription"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidRequest rejects a creation call with an unknown tier or asset.
// It always wraps the more specific cause.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnknownTier      = errors.New("unknown tier")
	ErrUnsupportedAsset = errors.New("unsupported asset")
)

// expectedAmountScale is the decimal precision of quoted crypto amounts.
const expectedAmountScale = 9

// Activator applies a settled payment to the user's entitlement.
type Activator interface {
	Activate(ctx context.Context, payment *models.PaymentRequest) (*models.Subscription, error)
}

// PriceSource is what payment creation needs from the price oracle.
type PriceSource interface {
	GetPriceUSD(ctx context.Context, asset models.AssetCode) (decimal.Decimal, error)
}

// ServiceParams wires the payment service's collaborators.
type ServiceParams struct {
	Store     store.Store
	Registry  chains.Registry
	Activator Activator
	Prices    PriceSource
	Assets    models.AssetCatalog
	Tiers     models.TierCatalog
	Wallets   models.WalletConfig
	Payments  models.PaymentsConfig
	Emitter   events.Emitter
	Recorder  metrics.Recorder
}

// Service owns the payment lifecycle: creation, verification against the
// chain, the terminal transitions, and the activation hand-off.
type Service struct {
	store     store.Store
	registry  chains.Registry
	activator Activator
	prices    PriceSource
	assets    models.AssetCatalog
	tiers     models.TierCatalog
	wallets   models.WalletConfig
	cfg       models.PaymentsConfig
	emitter   events.Emitter
	recorder  metrics.Recorder
	locks     *paymentLocks
}

func NewService(params ServiceParams) *Service {
	emitter := params.Emitter
	if emitter == nil {
		emitter = events.NewLogEmitter()
	}
	recorder := params.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &Service{
		store:     params.Store,
		registry:  params.Registry,
		activator: params.Activator,
		prices:    params.Prices,
		assets:    params.Assets,
		tiers:     params.Tiers,
		wallets:   params.Wallets,
		cfg:       params.Payments,
		emitter:   emitter,
		recorder:  recorder,
		locks:     newPaymentLocks(),
	}
}

// CreatePaymentRequest quotes the tier in the chosen asset and persists a
// pending payment. Persistence is the only side effect; nothing external is
// notified until the row is durable.
func (s *Service) CreatePaymentRequest(ctx context.Context, userId int64, tierName string, asset models.AssetCode) (*models.PaymentRequest, error) {
	tier, ok := s.tiers[tierName]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidRequest, ErrUnknownTier, tierName)
	}
	info, ok := s.assets[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidRequest, ErrUnsupportedAsset, asset)
	}

	payTo, err := s.depositAddress(info.Chain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	price, err := s.prices.GetPriceUSD(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to price %s: %w", asset, err)
	}

	now := time.Now().UTC()
	payment := &models.PaymentRequest{
		PaymentId:             newPaymentId(asset),
		UserId:                userId,
		AssetCode:             asset,
		Tier:                  tier.Name,
		ExpectedAmountCrypto:  tier.PriceUSD.DivRound(price, expectedAmountScale),
		ExpectedAmountUSD:     tier.PriceUSD,
		PayToAddress:          payTo,
		AttributionMethod:     models.AttributionAmountTimeWindow,
		RequiredConfirmations: info.RequiredConfirmations,
		Status:                models.StatusPending,
		CreatedAt:             now,
		ExpiresAt:             now.Add(s.cfg.Expiry),
	}

	// A memo-capable chain gets a unique token instead of relying on the
	// amount/time heuristic: many payments share one deposit address.
	if info.MemoSupported {
		payment.AttributionMethod = models.AttributionUniqueMemo
		payment.Memo = newMemoToken(asset)
	}

	if err := s.store.SavePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.recorder.IncCounter("payment_created", map[string]string{"asset": string(asset)})
	s.emit(ctx, paymentEvent(events.TypePaymentCreated, payment))

	zap.L().Info("Payment request created",
		zap.String("payment_id", payment.PaymentId),
		zap.Int64("user_id", userId),
		zap.String("tier", tier.Name),
		zap.String("asset", string(asset)),
		zap.String("expected_amount", payment.ExpectedAmountCrypto.String()),
		zap.String("attribution", string(payment.AttributionMethod)),
		zap.Time("expires_at", payment.ExpiresAt))

	return payment, nil
}

// VerifyPayment decides whether a matching transfer settled the payment and,
// exactly once, transitions it to completed and activates the subscription.
// It is idempotent: repeated calls on a terminal payment are no-op successes.
func (s *Service) VerifyPayment(ctx context.Context, paymentId string) (*models.VerifyResult, error) {
	release := s.locks.acquire(paymentId)
	defer release()

	payment, err := s.store.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if payment.IsOverdue(now) {
		if err := s.expire(ctx, payment); err != nil {
			return nil, err
		}
	}

	if payment.IsTerminal() {
		return s.terminalResult(ctx, payment), nil
	}

	verifier, err := s.registry.For(payment.AssetCode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	match, err := verifier.Verify(ctx, payment)
	s.recorder.ObserveLatency("verify", time.Since(start), map[string]string{"asset": string(payment.AssetCode)})
	if err != nil {
		return nil, fmt.Errorf("verification failed for %s: %w", paymentId, err)
	}
	if match == nil {
		return &models.VerifyResult{
			PaymentId: paymentId,
			Matched:   false,
			Status:    models.StatusPending,
		}, nil
	}

	flipped, err := s.store.MarkCompleted(ctx, store.MarkCompletedParams{
		PaymentId:      paymentId,
		DetectedTxHash: match.Hash,
		DetectedAmount: match.Amount,
		DetectedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist completion for %s: %w", paymentId, err)
	}
	if !flipped {
		// Something else already made the row terminal; report that state.
		current, err := s.store.GetPayment(ctx, paymentId)
		if err != nil {
			return nil, err
		}
		return s.terminalResult(ctx, current), nil
	}

	payment.Status = models.StatusCompleted
	payment.DetectedTxHash = match.Hash
	payment.DetectedAmount = match.Amount
	payment.DetectedAt = now

	s.recorder.IncCounter("payment_completed", map[string]string{"asset": string(payment.AssetCode)})
	s.emit(ctx, paymentEvent(events.TypePaymentCompleted, payment))

	zap.L().Info("Payment completed",
		zap.String("payment_id", paymentId),
		zap.String("tx_hash", match.Hash),
		zap.String("detected_amount", match.Amount.String()))

	s.activate(ctx, payment)

	return &models.VerifyResult{
		PaymentId: paymentId,
		Matched:   true,
		TxHash:    match.Hash,
		Status:    models.StatusCompleted,
	}, nil
}

// GetPaymentStatus returns the read view of a payment, flipping it to
// expired first when its deadline has passed.
func (s *Service) GetPaymentStatus(ctx context.Context, paymentId string) (*models.PaymentStatusInfo, error) {
	release := s.locks.acquire(paymentId)
	defer release()

	payment, err := s.store.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}

	if payment.IsOverdue(time.Now().UTC()) {
		if err := s.expire(ctx, payment); err != nil {
			return nil, err
		}
	}

	return &models.PaymentStatusInfo{
		PaymentId:            payment.PaymentId,
		UserId:               payment.UserId,
		Status:               payment.Status,
		AssetCode:            payment.AssetCode,
		ExpectedAmountCrypto: payment.ExpectedAmountCrypto,
		ExpectedAmountUSD:    payment.ExpectedAmountUSD,
		PayToAddress:         payment.PayToAddress,
		Memo:                 payment.Memo,
		DetectedTxHash:       payment.DetectedTxHash,
		CreatedAt:            payment.CreatedAt,
		ExpiresAt:            payment.ExpiresAt,
	}, nil
}

// ListPending returns payments still awaiting a matching transfer.
func (s *Service) ListPending(ctx context.Context) ([]*models.PaymentRequest, error) {
	return s.store.ListPaymentsByStatus(ctx, models.StatusPending)
}

// ExpireOverdue sweeps every pending payment past its deadline.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	count, err := s.store.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		zap.L().Info("Expired overdue payments", zap.Int64("count", count))
	}
	return count, nil
}

// expire flips a pending payment to expired and syncs the in-memory copy
// with whatever the durable state turned out to be.
func (s *Service) expire(ctx context.Context, payment *models.PaymentRequest) error {
	flipped, err := s.store.MarkExpired(ctx, payment.PaymentId)
	if err != nil {
		return fmt.Errorf("failed to expire payment %s: %w", payment.PaymentId, err)
	}
	if !flipped {
		current, err := s.store.GetPayment(ctx, payment.PaymentId)
		if err != nil {
			return err
		}
		*payment = *current
		return nil
	}

	payment.Status = models.StatusExpired

	s.recorder.IncCounter("payment_expired", map[string]string{"asset": string(payment.AssetCode)})
	s.emit(ctx, paymentEvent(events.TypePaymentExpired, payment))

	zap.L().Info("Payment expired",
		zap.String("payment_id", payment.PaymentId),
		zap.Time("expired_at", payment.ExpiresAt))

	return nil
}

func (s *Service) terminalResult(ctx context.Context, payment *models.PaymentRequest) *models.VerifyResult {
	result := &models.VerifyResult{
		PaymentId: payment.PaymentId,
		Status:    payment.Status,
	}
	if payment.Status == models.StatusCompleted {
		result.Matched = true
		result.TxHash = payment.DetectedTxHash
		s.healActivation(ctx, payment)
	}
	return result
}

// healActivation re-attempts provisioning for a completed payment with no
// activation on record, covering a crash between the terminal transition and
// the activation write. Settled, activated payments pass straight through.
func (s *Service) healActivation(ctx context.Context, payment *models.PaymentRequest) {
	activation, err := s.store.GetActivation(ctx, payment.PaymentId)
	if err != nil {
		zap.L().Warn("Could not check activation record",
			zap.String("payment_id", payment.PaymentId),
			zap.Error(err))
		return
	}
	if activation != nil {
		return
	}

	zap.L().Warn("Completed payment has no activation, re-attempting",
		zap.String("payment_id", payment.PaymentId))
	s.activate(ctx, payment)
}

// activate hands the completed payment to the activator. Failures never undo
// the completion: the transfer is on chain and the row is already terminal,
// so activation problems surface through alerts and events instead.
func (s *Service) activate(ctx context.Context, payment *models.PaymentRequest) {
	_, err := s.activator.Activate(ctx, payment)
	if err == nil {
		s.recorder.IncCounter("subscription_activated", map[string]string{"asset": string(payment.AssetCode)})
		s.emit(ctx, paymentEvent(events.TypeSubscriptionActivated, payment))
		return
	}

	var recErr *subscription.ReconciliationError
	if errors.As(err, &recErr) {
		s.recorder.IncCounter("reconciliation_required", map[string]string{"asset": string(payment.AssetCode)})

		event := paymentEvent(events.TypeReconciliationRequired, payment)
		event.UsdValue = recErr.UsdValue
		s.emit(ctx, event)
		return
	}

	zap.L().Error("Activation failed for completed payment",
		zap.String("payment_id", payment.PaymentId),
		zap.Error(err))
}

func (s *Service) depositAddress(chain string) (string, error) {
	switch chain {
	case "bitcoin":
		return s.wallets.BtcAddress, nil
	case "litecoin":
		return s.wallets.LtcAddress, nil
	case "ethereum":
		return s.wallets.EthAddress, nil
	case "solana":
		return s.wallets.SolAddress, nil
	case "ton":
		return s.wallets.TonAddress, nil
	default:
		return "", fmt.Errorf("no deposit address for chain %q", chain)
	}
}

func newPaymentId(asset models.AssetCode) string {
	return strings.ToLower(string(asset)) + "-" + uuid.New().String()
}

// newMemoToken builds the short token the user must attach to the transfer.
// Short enough to type by hand, random enough to never collide in practice.
func newMemoToken(asset models.AssetCode) string {
	return strings.ToLower(string(asset)) + "-" + strings.Split(uuid.New().String(), "-")[0]
}

func paymentEvent(eventType events.Type, payment *models.PaymentRequest) events.PaymentEvent {
	return events.PaymentEvent{
		Type:      eventType,
		PaymentId: payment.PaymentId,
		UserId:    payment.UserId,
		AssetCode: string(payment.AssetCode),
		Tier:      payment.Tier,
		TxHash:    payment.DetectedTxHash,
		Amount:    payment.DetectedAmount,
		Timestamp: time.Now().UTC(),
	}
}

func (s *Service) emit(ctx context.Context, event events.PaymentEvent) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		zap.L().Warn("Failed to emit event",
			zap.String("type", string(event.Type)),
			zap.String("payment_id", event.PaymentId),
			zap.Error(err))
	}
}
