package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Pricing  PricingConfig
	Chains   ChainsConfig
	Wallets  WalletConfig
	Payments PaymentsConfig
	Watcher  WatcherConfig
	Events   EventsConfig
	Telegram TelegramConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string `validate:"required"`
	MaxOpenConns    int    `validate:"gt=0"`
	MaxIdleConns    int    `validate:"gte=0"`
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration `validate:"gt=0"`
}

// PricingConfig holds price oracle settings
type PricingConfig struct {
	BaseUrl  string `validate:"required,url"`
	CacheTTL time.Duration
	Timeout  time.Duration `validate:"gt=0"`
}

// ChainsConfig holds block-explorer provider settings shared by all verifiers
type ChainsConfig struct {
	FetchLimit         int           `validate:"gte=10,lte=20"`
	ProviderTimeout    time.Duration `validate:"gt=0"`
	ProviderMinSpacing time.Duration `validate:"gte=0"`

	BtcEsploraUrl         string `validate:"required,url"`
	BtcEsploraFallbackUrl string `validate:"required,url"`
	LtcEsploraUrl         string `validate:"required,url"`

	EtherscanUrl    string `validate:"required,url"`
	EtherscanApiKey string
	BlockscoutUrl   string `validate:"required,url"`

	SolanaRpcUrl         string `validate:"required,url"`
	SolanaRpcFallbackUrl string `validate:"required,url"`

	TonApiUrl       string `validate:"required,url"`
	TonApiKey       string
	ToncenterUrl    string `validate:"required,url"`
	ToncenterApiKey string
}

// WalletConfig holds the static operator-owned receive addresses.
// USDT and USDC payments reuse the ETH address.
type WalletConfig struct {
	BtcAddress string `validate:"required"`
	EthAddress string `validate:"required,eth_addr"`
	SolAddress string `validate:"required"`
	LtcAddress string `validate:"required"`
	TonAddress string `validate:"required"`
}

// PaymentsConfig holds payment matching settings
type PaymentsConfig struct {
	Expiry      time.Duration `validate:"gt=0"`
	MatchWindow time.Duration `validate:"gt=0"`

	// Tolerance is the allowed fractional deviation between expected and
	// observed amount. SmallAmountTolerance replaces it when the expected
	// amount is below one major unit.
	Tolerance            float64 `validate:"gt=0,lt=1"`
	SmallAmountTolerance float64 `validate:"gt=0,lt=1"`

	AssetsFile string `validate:"required"`
	TiersFile  string `validate:"required"`
}

// WatcherConfig holds polling daemon settings
type WatcherConfig struct {
	PollInterval    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// EventsConfig holds Kafka lifecycle event settings
type EventsConfig struct {
	Enabled bool
	Broker  string
	Topic   string
}

// TelegramConfig holds operator alert settings
type TelegramConfig struct {
	BotToken    string
	AdminChatId int64
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Addr    string
}
