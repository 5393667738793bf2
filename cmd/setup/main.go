package main

import (
	"context"
	"flag"

	"github.com/i92tele/my-1stproject-sub000/internal/common"
	"github.com/i92tele/my-1stproject-sub000/internal/config"

	"go.uber.org/zap"
)

func main() {
	checkOnly := flag.Bool("check", false, "Validate configuration and catalogs without touching the database")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	assets, err := common.LoadAssetCatalog(cfg.Payments.AssetsFile)
	if err != nil {
		zap.L().Fatal("Asset catalog is invalid", zap.Error(err))
	}

	tiers, err := common.LoadTierCatalog(cfg.Payments.TiersFile)
	if err != nil {
		zap.L().Fatal("Tier catalog is invalid", zap.Error(err))
	}

	zap.L().Info("Catalogs validated",
		zap.Int("assets", len(assets)),
		zap.Int("tiers", len(tiers)))

	for code, info := range assets {
		zap.L().Info("Asset",
			zap.String("code", string(code)),
			zap.String("chain", info.Chain),
			zap.Int64("required_confirmations", info.RequiredConfirmations),
			zap.Bool("memo_supported", info.MemoSupported))
	}

	for name, tier := range tiers {
		zap.L().Info("Tier",
			zap.String("name", name),
			zap.String("price_usd", tier.PriceUSD.String()),
			zap.Int("duration_days", tier.DurationDays),
			zap.Int("ad_slots", tier.AdSlots))
	}

	if *checkOnly {
		zap.L().Info("Check-only run, skipping database initialization")
		return
	}

	ctx := context.Background()
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	zap.L().Info("Database schema initialized", zap.String("path", cfg.Database.Path))
}
