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

package chains

import (
	"context"
	"fmt"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Transaction is the chain-agnostic view of a transfer touching a deposit
// address. Amount is always in whole asset units (TON, not nanoton; BTC,
// not satoshi) so matching code never sees base-unit integers.
type Transaction struct {
	Hash          string
	Amount        decimal.Decimal
	Direction     Direction
	Confirmations int64
	Timestamp     time.Time
	Memo          string
}

// Verifier decides whether a recent on-chain transfer settles the given
// payment. A nil Transaction with a nil error means the chain was checked
// successfully and nothing matched yet; callers must not treat it as a
// failure.
type Verifier interface {
	AssetCode() models.AssetCode
	Verify(ctx context.Context, payment *models.PaymentRequest) (*Transaction, error)
}

// Registry maps asset codes to their verifiers.
type Registry map[models.AssetCode]Verifier

func (r Registry) For(asset models.AssetCode) (Verifier, error) {
	v, ok := r[asset]
	if !ok {
		return nil, fmt.Errorf("no verifier registered for asset %s", asset)
	}
	return v, nil
}

func (r Registry) Register(v Verifier) {
	r[v.AssetCode()] = v
}
