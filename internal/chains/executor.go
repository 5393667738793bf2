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
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrAllProvidersFailed reports that every provider in the rotation failed
// for one fetch. It says nothing about the payment itself.
var ErrAllProvidersFailed = errors.New("all providers failed")

// Provider fetches the most recent transfers touching an address,
// newest first, already normalized to whole asset units.
type Provider interface {
	Name() string
	RecentTransactions(ctx context.Context, address string, limit int) ([]Transaction, error)
}

// Executor tries providers in configured order until one answers. An empty
// transfer list is an answer; only transport, rate-limit, and malformed
// responses advance the rotation. Within a single fetch a provider is tried
// at most once.
type Executor struct {
	providers []Provider
	pacer     *Pacer
	timeout   time.Duration
	limit     int
}

func NewExecutor(providers []Provider, pacer *Pacer, timeout time.Duration, limit int) *Executor {
	return &Executor{
		providers: providers,
		pacer:     pacer,
		timeout:   timeout,
		limit:     limit,
	}
}

func (e *Executor) FetchRecent(ctx context.Context, address string) ([]Transaction, error) {
	if len(e.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrAllProvidersFailed)
	}

	var lastErr error
	for _, provider := range e.providers {
		if err := e.pacer.Wait(ctx, provider.Name()); err != nil {
			return nil, fmt.Errorf("failed to pace provider %s: %w", provider.Name(), err)
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		txs, err := provider.RecentTransactions(callCtx, address, e.limit)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Warn("Provider failed, advancing to next",
				zap.String("provider", provider.Name()),
				zap.Error(err))
			lastErr = fmt.Errorf("%s: %w", provider.Name(), err)
			continue
		}

		return txs, nil
	}

	return nil, fmt.Errorf("%w: last error: %v", ErrAllProvidersFailed, lastErr)
}
