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

package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"

	"go.uber.org/zap"
)

// PaymentService is the slice of the payment service the watcher drives.
type PaymentService interface {
	ExpireOverdue(ctx context.Context) (int64, error)
	ListPending(ctx context.Context) ([]*models.PaymentRequest, error)
	VerifyPayment(ctx context.Context, paymentId string) (*models.VerifyResult, error)
}

// Watcher periodically sweeps overdue payments and re-verifies every pending
// one until it reaches a terminal state.
type Watcher struct {
	payments     PaymentService
	pollInterval time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWatcher(payments PaymentService, cfg models.WatcherConfig) *Watcher {
	return &Watcher{
		payments:     payments,
		pollInterval: cfg.PollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the payment polling process
func (w *Watcher) Start(ctx context.Context) error {
	zap.L().Info("Starting payment watcher",
		zap.Duration("poll_interval", w.pollInterval))

	go w.pollLoop(ctx)
	return nil
}

// Stop gracefully stops the watcher and waits for the loop to drain.
func (w *Watcher) Stop() {
	zap.L().Info("Stopping payment watcher")
	close(w.stopChan)
	<-w.doneChan
	zap.L().Info("Payment watcher stopped")
}

// pollLoop runs the main polling loop
func (w *Watcher) pollLoop(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ticker.C:
			w.poll(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll expires what is overdue, then checks each pending payment once.
// Payments are verified concurrently; provider pacing inside the chain
// executors keeps the actual upstream call rate bounded.
func (w *Watcher) poll(ctx context.Context) {
	if _, err := w.payments.ExpireOverdue(ctx); err != nil {
		zap.L().Error("Failed to expire overdue payments", zap.Error(err))
	}

	pending, err := w.payments.ListPending(ctx)
	if err != nil {
		zap.L().Error("Failed to list pending payments", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	zap.L().Debug("Polling pending payments", zap.Int("count", len(pending)))

	var wg sync.WaitGroup

	for _, payment := range pending {
		wg.Add(1)

		go func(p *models.PaymentRequest) {
			defer wg.Done()

			result, err := w.payments.VerifyPayment(ctx, p.PaymentId)
			if err != nil {
				zap.L().Error("Failed to verify payment",
					zap.String("payment_id", p.PaymentId),
					zap.String("asset", string(p.AssetCode)),
					zap.Error(err))
				return
			}

			if result.Matched {
				zap.L().Info("Watcher settled payment",
					zap.String("payment_id", p.PaymentId),
					zap.String("tx_hash", result.TxHash))
			}
		}(payment)
	}

	wg.Wait()
}
