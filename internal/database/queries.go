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

const (
	// Payment queries
	queryCheckDuplicatePayment = `
		SELECT payment_id FROM payments WHERE payment_id = ? LIMIT 1`

	queryInsertPayment = `
		INSERT INTO payments (
			payment_id, user_id, asset_code, tier, expected_amount_crypto,
			expected_amount_usd, pay_to_address, attribution_method, memo,
			required_confirmations, status, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPayment = `
		SELECT payment_id, user_id, asset_code, tier, expected_amount_crypto,
		       expected_amount_usd, pay_to_address, attribution_method, memo,
		       required_confirmations, status, detected_tx_hash, detected_amount,
		       detected_at, created_at, expires_at
		FROM payments
		WHERE payment_id = ?`

	queryListPaymentsByStatus = `
		SELECT payment_id, user_id, asset_code, tier, expected_amount_crypto,
		       expected_amount_usd, pay_to_address, attribution_method, memo,
		       required_confirmations, status, detected_tx_hash, detected_amount,
		       detected_at, created_at, expires_at
		FROM payments
		WHERE status = ?
		ORDER BY created_at`

	// Terminal transitions update only rows still pending; both are the
	// storage-level half of the state machine guard.
	queryMarkPaymentCompleted = `
		UPDATE payments
		SET status = 'completed', detected_tx_hash = ?, detected_amount = ?, detected_at = ?
		WHERE payment_id = ? AND status = 'pending'`

	queryMarkPaymentExpired = `
		UPDATE payments
		SET status = 'expired'
		WHERE payment_id = ? AND status = 'pending'`

	queryExpireOverduePayments = `
		UPDATE payments
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at < ?`

	// Subscription queries
	queryGetSubscription = `
		SELECT user_id, tier, expires_at, updated_at
		FROM subscriptions
		WHERE user_id = ?`

	queryUpsertSubscription = `
		INSERT INTO subscriptions (user_id, tier, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			tier = excluded.tier,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`

	// Ad slot queries
	queryCountAdSlots = `
		SELECT COUNT(*) FROM ad_slots WHERE user_id = ?`

	queryInsertAdSlot = `
		INSERT OR IGNORE INTO ad_slots (user_id, slot_number) VALUES (?, ?)`

	// Activation queries
	queryCheckActivation = `
		SELECT payment_id FROM activations WHERE payment_id = ? LIMIT 1`

	queryInsertActivation = `
		INSERT INTO activations (payment_id, user_id, tier, usd_value, activated_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetActivation = `
		SELECT payment_id, user_id, tier, usd_value, activated_at
		FROM activations
		WHERE payment_id = ?`
)
