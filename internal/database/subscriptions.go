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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/i92tele/my-1stproject-sub000/internal/models"
	"github.com/i92tele/my-1stproject-sub000/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetSubscription returns the user's current entitlement.
func (s *Service) GetSubscription(ctx context.Context, userId int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.QueryRowContext(ctx, queryGetSubscription, userId).
		Scan(&sub.UserId, &sub.Tier, &sub.ExpiresAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", store.ErrSubscriptionNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription for user %d: %w", userId, err)
	}
	return &sub, nil
}

// CountAdSlots returns how many posting slots the user has provisioned.
func (s *Service) CountAdSlots(ctx context.Context, userId int64) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountAdSlots, userId).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ad slots for user %d: %w", userId, err)
	}
	return count, nil
}

// GetActivation loads the activation audit row for a payment, if any.
func (s *Service) GetActivation(ctx context.Context, paymentId string) (*models.Activation, error) {
	var act models.Activation
	var usdValueStr string
	err := s.db.QueryRowContext(ctx, queryGetActivation, paymentId).
		Scan(&act.PaymentId, &act.UserId, &act.Tier, &usdValueStr, &act.ActivatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activation for payment %s: %w", paymentId, err)
	}

	act.UsdValue, err = decimal.NewFromString(usdValueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse usd_value '%s': %w", usdValueStr, err)
	}
	return &act, nil
}

// ApplyActivation atomically applies one completed payment to the user's
// entitlement: record the activation, extend the subscription, provision ad
// slots. The activation row's primary key makes re-application impossible.
func (s *Service) ApplyActivation(ctx context.Context, params store.ApplyActivationParams) (*models.Subscription, error) {
	zap.L().Info("Applying activation",
		zap.String("payment_id", params.PaymentId),
		zap.Int64("user_id", params.UserId),
		zap.String("tier", params.Tier),
		zap.String("usd_value", params.UsdValue.String()))

	now := params.Now.UTC()

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Check for an already-applied activation
	var existingId string
	err = tx.QueryRowContext(ctx, queryCheckActivation, params.PaymentId).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate activation detected, skipping",
			zap.String("payment_id", params.PaymentId))
		return nil, fmt.Errorf("%w: payment %s", store.ErrDuplicateActivation, params.PaymentId)
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check for duplicate activation: %w", err)
	}

	// Extend from the later of now and the current expiry so sequential
	// purchases stack rather than overwrite.
	base := now
	var currentUserId int64
	var currentTier string
	var currentExpiry, currentUpdated sql.NullTime
	err = tx.QueryRowContext(ctx, queryGetSubscription, params.UserId).
		Scan(&currentUserId, &currentTier, &currentExpiry, &currentUpdated)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read current subscription: %w", err)
	}
	if err == nil && currentExpiry.Valid && currentExpiry.Time.After(base) {
		base = currentExpiry.Time
	}

	newExpiry := base.AddDate(0, 0, params.DurationDays)

	if _, err := tx.ExecContext(ctx, queryUpsertSubscription,
		params.UserId, params.Tier, newExpiry, now); err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	// Provision slots 1..N; INSERT OR IGNORE skips slots the user already
	// owns from a previous activation.
	for slot := 1; slot <= params.AdSlots; slot++ {
		if _, err := tx.ExecContext(ctx, queryInsertAdSlot, params.UserId, slot); err != nil {
			return nil, fmt.Errorf("failed to provision ad slot %d: %w", slot, err)
		}
	}

	if _, err := tx.ExecContext(ctx, queryInsertActivation,
		params.PaymentId, params.UserId, params.Tier, params.UsdValue.String(), now); err != nil {
		return nil, fmt.Errorf("failed to insert activation: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}

	zap.L().Info("Activation applied successfully",
		zap.String("payment_id", params.PaymentId),
		zap.Int64("user_id", params.UserId),
		zap.String("tier", params.Tier),
		zap.Time("new_expiry", newExpiry),
		zap.Int("ad_slots", params.AdSlots))

	return &models.Subscription{
		UserId:    params.UserId,
		Tier:      params.Tier,
		ExpiresAt: newExpiry,
		UpdatedAt: now,
	}, nil
}
