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

package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	"github.com/shopspring/decimal"
)

// satoshiExponent converts satoshi to whole BTC/LTC: value * 10^-8.
const satoshiExponent = -8

var _ chains.Provider = (*EsploraProvider)(nil)

// EsploraProvider reads recent address activity from an Esplora-compatible
// explorer. Blockstream, mempool.space and Litecoin Space all speak the same
// API, so one provider type covers both UTXO chains.
type EsploraProvider struct {
	name    string
	baseUrl string
	client  *http.Client
}

func NewEsploraProvider(name, baseUrl string) *EsploraProvider {
	return &EsploraProvider{
		name:    name,
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		client:  &http.Client{},
	}
}

func (p *EsploraProvider) Name() string {
	return p.name
}

func (p *EsploraProvider) RecentTransactions(ctx context.Context, address string, limit int) ([]chains.Transaction, error) {
	tip, err := p.tipHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tip height: %w", err)
	}

	var raw []esploraTx
	if err := p.getJSON(ctx, "/address/"+address+"/txs", &raw); err != nil {
		return nil, fmt.Errorf("failed to list address transactions: %w", err)
	}

	// Esplora returns mempool entries first, then confirmed newest-first.
	txs := make([]chains.Transaction, 0, len(raw))
	for _, tx := range raw {
		if len(txs) >= limit {
			break
		}
		txs = append(txs, normalizeTx(tx, address, tip))
	}

	return txs, nil
}

// normalizeTx folds a raw UTXO transaction into a single directional
// transfer. Spending from the address makes the whole transaction outbound
// even when change returns to it, so deposits can never be confused with
// self-spends.
func normalizeTx(tx esploraTx, address string, tip int64) chains.Transaction {
	spends := false
	for _, vin := range tx.Vin {
		if vin.Prevout.ScriptpubkeyAddress == address {
			spends = true
			break
		}
	}

	var receivedSats int64
	for _, vout := range tx.Vout {
		if vout.ScriptpubkeyAddress == address {
			receivedSats += vout.Value
		}
	}

	direction := chains.DirectionInbound
	if spends {
		direction = chains.DirectionOutbound
	}

	var confirmations int64
	timestamp := time.Now()
	if tx.Status.Confirmed {
		confirmations = tip - tx.Status.BlockHeight + 1
		timestamp = time.Unix(tx.Status.BlockTime, 0).UTC()
	}

	return chains.Transaction{
		Hash:          tx.Txid,
		Amount:        decimal.New(receivedSats, satoshiExponent),
		Direction:     direction,
		Confirmations: confirmations,
		Timestamp:     timestamp,
	}
}

func (p *EsploraProvider) tipHeight(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseUrl+"/blocks/tip/height", nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
}

func (p *EsploraProvider) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseUrl+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type esploraTx struct {
	Txid   string        `json:"txid"`
	Status esploraStatus `json:"status"`
	Vin    []esploraVin  `json:"vin"`
	Vout   []esploraVout `json:"vout"`
}

type esploraStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

type esploraVin struct {
	Prevout esploraVout `json:"prevout"`
}

type esploraVout struct {
	ScriptpubkeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}
