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

package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// minCacheTTL is the floor on quote freshness. Prices move slower than
// payments settle, so anything fresher just burns API quota.
const minCacheTTL = 5 * time.Minute

type quote struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// Oracle caches USD prices per asset. A fetch failure falls back to the last
// cached quote regardless of staleness: a missing price must never block
// payment creation or tier attribution, both of which the operator can
// reverse, whereas refusing service cannot be.
type Oracle struct {
	baseUrl  string
	client   *http.Client
	ttl      time.Duration
	priceIds map[models.AssetCode]string

	mu     sync.RWMutex
	quotes map[models.AssetCode]quote

	group singleflight.Group
}

func NewOracle(cfg models.PricingConfig, catalog models.AssetCatalog) *Oracle {
	ttl := cfg.CacheTTL
	if ttl < minCacheTTL {
		ttl = minCacheTTL
	}

	priceIds := make(map[models.AssetCode]string, len(catalog))
	for code, info := range catalog {
		priceIds[code] = info.PriceId
	}

	return &Oracle{
		baseUrl:  strings.TrimSuffix(cfg.BaseUrl, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		ttl:      ttl,
		priceIds: priceIds,
		quotes:   make(map[models.AssetCode]quote),
	}
}

// GetPriceUSD returns the cached quote when fresh, otherwise refreshes it.
// Concurrent refreshes for the same asset collapse into one upstream call.
func (o *Oracle) GetPriceUSD(ctx context.Context, asset models.AssetCode) (decimal.Decimal, error) {
	if q, ok := o.cached(asset); ok && time.Since(q.fetchedAt) < o.ttl {
		return q.price, nil
	}

	v, err, _ := o.group.Do(string(asset), func() (interface{}, error) {
		// A caller that queued behind the refresh sees the fresh entry.
		if q, ok := o.cached(asset); ok && time.Since(q.fetchedAt) < o.ttl {
			return q.price, nil
		}

		price, err := o.fetch(ctx, asset)
		if err != nil {
			if q, ok := o.cached(asset); ok {
				zap.L().Warn("Price fetch failed, serving stale quote",
					zap.String("asset", string(asset)),
					zap.Duration("quote_age", time.Since(q.fetchedAt)),
					zap.Error(err))
				return q.price, nil
			}
			return nil, fmt.Errorf("no price available for %s: %w", asset, err)
		}

		o.mu.Lock()
		o.quotes[asset] = quote{price: price, fetchedAt: time.Now()}
		o.mu.Unlock()

		zap.L().Debug("Price quote refreshed",
			zap.String("asset", string(asset)),
			zap.String("price_usd", price.String()))

		return price, nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}

	return v.(decimal.Decimal), nil
}

func (o *Oracle) cached(asset models.AssetCode) (quote, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	q, ok := o.quotes[asset]
	return q, ok
}

// fetch queries the price API. Response shape: {"<id>": {"usd": 104225.12}}.
func (o *Oracle) fetch(ctx context.Context, asset models.AssetCode) (decimal.Decimal, error) {
	priceId, ok := o.priceIds[asset]
	if !ok || priceId == "" {
		return decimal.Decimal{}, fmt.Errorf("asset %s has no price id configured", asset)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		o.baseUrl, url.QueryEscape(priceId))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	// json.Number keeps the quote exact instead of routing it through float64.
	var payload map[string]map[string]json.Number
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode price response: %w", err)
	}

	priceRaw, ok := payload[priceId]["usd"]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("price for %s missing from response", priceId)
	}

	price, err := decimal.NewFromString(priceRaw.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse price %q: %w", priceRaw.String(), err)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, fmt.Errorf("price API returned non-positive price %s for %s", price.String(), priceId)
	}

	return price, nil
}
