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

package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const nativeDecimals = 18

var _ chains.Provider = (*EtherscanProvider)(nil)

// EtherscanProvider lists account activity through the Etherscan account API.
// Blockscout exposes the same module/action surface, so both the primary and
// the fallback explorer go through this type. A non-empty contract switches
// it from native transfers (txlist) to ERC-20 transfers of that token
// (tokentx).
type EtherscanProvider struct {
	name     string
	baseUrl  string
	apiKey   string
	contract string
	decimals int32
	client   *http.Client
}

func NewEtherscanProvider(name, baseUrl, apiKey string) *EtherscanProvider {
	return &EtherscanProvider{
		name:     name,
		baseUrl:  strings.TrimSuffix(baseUrl, "/"),
		apiKey:   apiKey,
		decimals: nativeDecimals,
		client:   &http.Client{},
	}
}

func NewTokenProvider(name, baseUrl, apiKey, contract string, decimals int32) *EtherscanProvider {
	return &EtherscanProvider{
		name:     name,
		baseUrl:  strings.TrimSuffix(baseUrl, "/"),
		apiKey:   apiKey,
		contract: contract,
		decimals: decimals,
		client:   &http.Client{},
	}
}

func (p *EtherscanProvider) Name() string {
	return p.name
}

func (p *EtherscanProvider) RecentTransactions(ctx context.Context, address string, limit int) ([]chains.Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(limit))
	params.Set("sort", "desc")
	if p.apiKey != "" {
		params.Set("apikey", p.apiKey)
	}
	if p.contract != "" {
		params.Set("action", "tokentx")
		params.Set("contractaddress", p.contract)
	} else {
		params.Set("action", "txlist")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseUrl+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned status %d", resp.StatusCode)
	}

	var envelope etherscanEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}

	// "No transactions found" comes back with status 0 but is a valid,
	// empty answer. Anything else with status 0 is a real failure, often a
	// rate limit notice carried in the result field as a plain string.
	if envelope.Status != "1" {
		if strings.Contains(envelope.Message, "No transactions found") {
			return []chains.Transaction{}, nil
		}
		return nil, fmt.Errorf("explorer error: %s: %s", envelope.Message, resultDetail(envelope.Result))
	}

	var rows []etherscanTx
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode transaction rows: %w", err)
	}

	account := gethcommon.HexToAddress(address)

	txs := make([]chains.Transaction, 0, len(rows))
	for _, row := range rows {
		if len(txs) >= limit {
			break
		}
		if row.IsError == "1" {
			continue
		}

		tx, err := p.normalizeRow(row, account)
		if err != nil {
			return nil, fmt.Errorf("malformed transaction row %s: %w", row.Hash, err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func (p *EtherscanProvider) normalizeRow(row etherscanTx, account gethcommon.Address) (chains.Transaction, error) {
	value, err := decimal.NewFromString(row.Value)
	if err != nil {
		return chains.Transaction{}, fmt.Errorf("bad value %q: %w", row.Value, err)
	}

	unixTime, err := strconv.ParseInt(row.TimeStamp, 10, 64)
	if err != nil {
		return chains.Transaction{}, fmt.Errorf("bad timestamp %q: %w", row.TimeStamp, err)
	}

	confirmations, err := strconv.ParseInt(row.Confirmations, 10, 64)
	if err != nil {
		return chains.Transaction{}, fmt.Errorf("bad confirmations %q: %w", row.Confirmations, err)
	}

	direction := chains.DirectionOutbound
	if gethcommon.HexToAddress(row.To) == account {
		direction = chains.DirectionInbound
	}

	return chains.Transaction{
		Hash:          row.Hash,
		Amount:        value.Shift(-p.decimals),
		Direction:     direction,
		Confirmations: confirmations,
		Timestamp:     time.Unix(unixTime, 0).UTC(),
	}, nil
}

func resultDetail(raw json.RawMessage) string {
	var detail string
	if err := json.Unmarshal(raw, &detail); err != nil {
		return string(raw)
	}
	return detail
}

type etherscanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type etherscanTx struct {
	Hash          string `json:"hash"`
	From          string `json:"from"`
	To            string `json:"to"`
	Value         string `json:"value"`
	TimeStamp     string `json:"timeStamp"`
	Confirmations string `json:"confirmations"`
	IsError       string `json:"isError"`
}
