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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetCode identifies a payable asset.
type AssetCode string

const (
	AssetBTC  AssetCode = "BTC"
	AssetETH  AssetCode = "ETH"
	AssetUSDT AssetCode = "USDT"
	AssetUSDC AssetCode = "USDC"
	AssetSOL  AssetCode = "SOL"
	AssetLTC  AssetCode = "LTC"
	AssetTON  AssetCode = "TON"
)

// PaymentStatus is the lifecycle state of a payment request.
// Transitions: pending -> completed, pending -> expired. Both are terminal.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusExpired   PaymentStatus = "expired"
)

// AttributionMethod is the rule used to decide that an on-chain transaction
// corresponds to a specific payment request.
type AttributionMethod string

const (
	// AttributionUniqueMemo matches on an exact memo/comment token carried
	// by the transaction. A memo match alone is authoritative.
	AttributionUniqueMemo AttributionMethod = "unique_memo"

	// AttributionAmountTimeWindow matches on amount (within tolerance)
	// inside a window around the payment's creation time.
	AttributionAmountTimeWindow AttributionMethod = "amount_time_window"
)

// PaymentRequest is a pending purchase awaiting an on-chain transaction.
// Once status leaves pending the row is immutable except for the forensic
// detected_* fields written at completion.
type PaymentRequest struct {
	PaymentId             string            `db:"payment_id"`
	UserId                int64             `db:"user_id"`
	AssetCode             AssetCode         `db:"asset_code"`
	Tier                  string            `db:"tier"`
	ExpectedAmountCrypto  decimal.Decimal   `db:"expected_amount_crypto"`
	ExpectedAmountUSD     decimal.Decimal   `db:"expected_amount_usd"`
	PayToAddress          string            `db:"pay_to_address"`
	AttributionMethod     AttributionMethod `db:"attribution_method"`
	Memo                  string            `db:"memo"`
	RequiredConfirmations int64             `db:"required_confirmations"`
	Status                PaymentStatus     `db:"status"`
	DetectedTxHash        string            `db:"detected_tx_hash"`
	DetectedAmount        decimal.Decimal   `db:"detected_amount"`
	DetectedAt            time.Time         `db:"detected_at"`
	CreatedAt             time.Time         `db:"created_at"`
	ExpiresAt             time.Time         `db:"expires_at"`
}

// IsTerminal reports whether the payment can no longer change state.
func (p *PaymentRequest) IsTerminal() bool {
	return p.Status != StatusPending
}

// IsOverdue reports whether a pending payment has outlived its expiry.
func (p *PaymentRequest) IsOverdue(now time.Time) bool {
	return p.Status == StatusPending && now.After(p.ExpiresAt)
}

// VerifyResult is the outcome of one VerifyPayment call.
type VerifyResult struct {
	PaymentId string
	Matched   bool
	TxHash    string
	Status    PaymentStatus
}

// PaymentStatusInfo is the read-only view returned to collaborators.
type PaymentStatusInfo struct {
	PaymentId            string
	UserId               int64
	Status               PaymentStatus
	AssetCode            AssetCode
	ExpectedAmountCrypto decimal.Decimal
	ExpectedAmountUSD    decimal.Decimal
	PayToAddress         string
	Memo                 string
	DetectedTxHash       string
	CreatedAt            time.Time
	ExpiresAt            time.Time
}
