package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/i92tele/my-1stproject-sub000/internal/chains"
	"github.com/i92tele/my-1stproject-sub000/internal/chains/bitcoin"
	"github.com/i92tele/my-1stproject-sub000/internal/chains/evm"
	"github.com/i92tele/my-1stproject-sub000/internal/chains/solana"
	"github.com/i92tele/my-1stproject-sub000/internal/chains/ton"
	"github.com/i92tele/my-1stproject-sub000/internal/database"
	"github.com/i92tele/my-1stproject-sub000/internal/events"
	"github.com/i92tele/my-1stproject-sub000/internal/metrics"
	"github.com/i92tele/my-1stproject-sub000/internal/models"
	"github.com/i92tele/my-1stproject-sub000/internal/notify"
	"github.com/i92tele/my-1stproject-sub000/internal/payments"
	"github.com/i92tele/my-1stproject-sub000/internal/pricing"
	"github.com/i92tele/my-1stproject-sub000/internal/subscription"
	"github.com/i92tele/my-1stproject-sub000/internal/watcher"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		// Only log if the file exists but couldn't be read
		// (godotenv returns an error if .env doesn't exist)
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Oracle    *pricing.Oracle
	Payments  *payments.Service
	Watcher   *watcher.Watcher
	Emitter   events.Emitter
	Notifier  notify.Notifier
	Recorder  metrics.Recorder
	Assets    models.AssetCatalog
	Tiers     models.TierCatalog
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	assets, err := LoadAssetCatalog(cfg.Payments.AssetsFile)
	if err != nil {
		return nil, err
	}

	tiers, err := LoadTierCatalog(cfg.Payments.TiersFile)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	oracle := pricing.NewOracle(cfg.Pricing, assets)

	registry, err := buildVerifierRegistry(cfg.Chains, cfg.Payments, assets)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	var notifier notify.Notifier
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatId)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		notifier = telegramNotifier
		zap.L().Info("Operator alerts via Telegram",
			zap.Int64("admin_chat_id", cfg.Telegram.AdminChatId))
	} else {
		notifier = notify.NewLogNotifier()
		zap.L().Info("Operator alerts via log only, set TELEGRAM_BOT_TOKEN for Telegram delivery")
	}

	var emitter events.Emitter
	if cfg.Events.Enabled {
		emitter = events.NewKafkaEmitter(cfg.Events.Broker, cfg.Events.Topic)
		zap.L().Info("Publishing lifecycle events to Kafka",
			zap.String("broker", cfg.Events.Broker),
			zap.String("topic", cfg.Events.Topic))
	} else {
		emitter = events.NewLogEmitter()
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewPrometheusRecorder()
	}

	activator := subscription.NewActivator(dbService, oracle, tiers, notifier)

	paymentService := payments.NewService(payments.ServiceParams{
		Store:     dbService,
		Registry:  registry,
		Activator: activator,
		Prices:    oracle,
		Assets:    assets,
		Tiers:     tiers,
		Wallets:   cfg.Wallets,
		Payments:  cfg.Payments,
		Emitter:   emitter,
		Recorder:  recorder,
	})

	return &Services{
		DbService: dbService,
		Oracle:    oracle,
		Payments:  paymentService,
		Watcher:   watcher.NewWatcher(paymentService, cfg.Watcher),
		Emitter:   emitter,
		Notifier:  notifier,
		Recorder:  recorder,
		Assets:    assets,
		Tiers:     tiers,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like checking a payment's status.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.Emitter != nil {
		if err := cs.Emitter.Close(); err != nil {
			zap.L().Warn("Failed to close event emitter", zap.Error(err))
		}
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// buildVerifierRegistry wires one verifier per supported asset, each backed
// by an ordered provider chain sharing one pacer.
func buildVerifierRegistry(chainsCfg models.ChainsConfig, paymentsCfg models.PaymentsConfig, assets models.AssetCatalog) (chains.Registry, error) {
	pacer := chains.NewPacer(chainsCfg.ProviderMinSpacing)
	rules := chains.MatchRules{
		Tolerance:            decimal.NewFromFloat(paymentsCfg.Tolerance),
		SmallAmountTolerance: decimal.NewFromFloat(paymentsCfg.SmallAmountTolerance),
		Window:               paymentsCfg.MatchWindow,
	}

	registry := chains.Registry{}
	for code, info := range assets {
		providers, err := providersFor(chainsCfg, info)
		if err != nil {
			return nil, err
		}
		executor := chains.NewExecutor(providers, pacer, chainsCfg.ProviderTimeout, chainsCfg.FetchLimit)
		registry.Register(chains.NewAddressVerifier(code, executor, rules))
	}

	return registry, nil
}

// providersFor returns the ordered block-explorer providers for one asset.
// Providers sharing a name (e.g. etherscan for ETH and its tokens) share a
// pacing bucket, keeping the combined call rate inside one API quota.
func providersFor(cfg models.ChainsConfig, info models.AssetInfo) ([]chains.Provider, error) {
	switch info.Chain {
	case "bitcoin":
		return []chains.Provider{
			bitcoin.NewEsploraProvider("blockstream", cfg.BtcEsploraUrl),
			bitcoin.NewEsploraProvider("mempool", cfg.BtcEsploraFallbackUrl),
		}, nil
	case "litecoin":
		return []chains.Provider{
			bitcoin.NewEsploraProvider("litecoinspace", cfg.LtcEsploraUrl),
		}, nil
	case "ethereum":
		if info.IsToken() {
			return []chains.Provider{
				evm.NewTokenProvider("etherscan", cfg.EtherscanUrl, cfg.EtherscanApiKey, info.TokenContract, info.Decimals),
				evm.NewTokenProvider("blockscout", cfg.BlockscoutUrl, "", info.TokenContract, info.Decimals),
			}, nil
		}
		return []chains.Provider{
			evm.NewEtherscanProvider("etherscan", cfg.EtherscanUrl, cfg.EtherscanApiKey),
			evm.NewEtherscanProvider("blockscout", cfg.BlockscoutUrl, ""),
		}, nil
	case "solana":
		return []chains.Provider{
			solana.NewRPCProvider("solana-rpc", cfg.SolanaRpcUrl),
			solana.NewRPCProvider("solana-rpc-fallback", cfg.SolanaRpcFallbackUrl),
		}, nil
	case "ton":
		return []chains.Provider{
			ton.NewTonApiProvider("tonapi", cfg.TonApiUrl, cfg.TonApiKey),
			ton.NewToncenterProvider("toncenter", cfg.ToncenterUrl, cfg.ToncenterApiKey),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported chain %q for asset %s", info.Chain, info.Code)
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
