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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/i92tele/my-1stproject-sub000/internal/common"
	"github.com/i92tele/my-1stproject-sub000/internal/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting payment watcher")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.Handler()}
		go func() {
			zap.L().Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	if err := services.Watcher.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start watcher", zap.Error(err))
	}

	zap.L().Info("Watcher running",
		zap.Int("assets", len(services.Assets)),
		zap.Int("tiers", len(services.Tiers)),
		zap.Duration("poll_interval", cfg.Watcher.PollInterval))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping watcher...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Watcher.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		services.Watcher.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Watcher stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			zap.L().Warn("Failed to shut down metrics server", zap.Error(err))
		}
	}
}
