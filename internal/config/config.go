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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	priceCacheTTL, err := getEnvDuration("PRICE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	priceTimeout, err := getEnvDuration("PRICE_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	providerTimeout, err := getEnvDuration("PROVIDER_TIMEOUT", 12*time.Second)
	if err != nil {
		return nil, err
	}

	providerMinSpacing, err := getEnvDuration("PROVIDER_MIN_SPACING", 3*time.Second)
	if err != nil {
		return nil, err
	}

	paymentExpiry, err := getEnvDuration("PAYMENT_EXPIRY", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	matchWindow, err := getEnvDuration("PAYMENT_MATCH_WINDOW", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("WATCHER_POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("WATCHER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "payments.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Pricing: models.PricingConfig{
			BaseUrl:  getEnvString("PRICE_API_URL", "https://api.coingecko.com/api/v3"),
			CacheTTL: priceCacheTTL,
			Timeout:  priceTimeout,
		},
		Chains: models.ChainsConfig{
			FetchLimit:         getEnvInt("CHAIN_FETCH_LIMIT", 15),
			ProviderTimeout:    providerTimeout,
			ProviderMinSpacing: providerMinSpacing,

			BtcEsploraUrl:         getEnvString("BTC_ESPLORA_URL", "https://blockstream.info/api"),
			BtcEsploraFallbackUrl: getEnvString("BTC_ESPLORA_FALLBACK_URL", "https://mempool.space/api"),
			LtcEsploraUrl:         getEnvString("LTC_ESPLORA_URL", "https://litecoinspace.org/api"),

			EtherscanUrl:    getEnvString("ETHERSCAN_URL", "https://api.etherscan.io/api"),
			EtherscanApiKey: getEnvString("ETHERSCAN_API_KEY", ""),
			BlockscoutUrl:   getEnvString("BLOCKSCOUT_URL", "https://eth.blockscout.com/api"),

			SolanaRpcUrl:         getEnvString("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			SolanaRpcFallbackUrl: getEnvString("SOLANA_RPC_FALLBACK_URL", "https://solana-rpc.publicnode.com"),

			TonApiUrl:       getEnvString("TONAPI_URL", "https://tonapi.io"),
			TonApiKey:       getEnvString("TONAPI_KEY", ""),
			ToncenterUrl:    getEnvString("TONCENTER_URL", "https://toncenter.com"),
			ToncenterApiKey: getEnvString("TONCENTER_API_KEY", ""),
		},
		Wallets: models.WalletConfig{
			BtcAddress: getEnvString("WALLET_BTC_ADDRESS", ""),
			EthAddress: getEnvString("WALLET_ETH_ADDRESS", ""),
			SolAddress: getEnvString("WALLET_SOL_ADDRESS", ""),
			LtcAddress: getEnvString("WALLET_LTC_ADDRESS", ""),
			TonAddress: getEnvString("WALLET_TON_ADDRESS", ""),
		},
		Payments: models.PaymentsConfig{
			Expiry:               paymentExpiry,
			MatchWindow:          matchWindow,
			Tolerance:            getEnvFloat("PAYMENT_AMOUNT_TOLERANCE", 0.03),
			SmallAmountTolerance: getEnvFloat("PAYMENT_SMALL_AMOUNT_TOLERANCE", 0.05),
			AssetsFile:           getEnvString("ASSETS_FILE", "config/assets.yaml"),
			TiersFile:            getEnvString("TIERS_FILE", "config/tiers.yaml"),
		},
		Watcher: models.WatcherConfig{
			PollInterval:    pollInterval,
			ShutdownTimeout: shutdownTimeout,
		},
		Events: models.EventsConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Broker:  getEnvString("KAFKA_BROKER_ADDRESS", "localhost:9092"),
			Topic:   getEnvString("KAFKA_TOPIC", "payment-events"),
		},
		Telegram: models.TelegramConfig{
			BotToken:    getEnvString("TELEGRAM_BOT_TOKEN", ""),
			AdminChatId: getEnvInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
		},
		Metrics: models.MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", false),
			Addr:    getEnvString("METRICS_ADDR", ":9090"),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
