package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/i92tele/my-1stproject-sub000/internal/models"
)

type fakePayments struct {
	mu       sync.Mutex
	pending  []*models.PaymentRequest
	verified map[string]int
	sweeps   int
}

func newFakePayments(paymentIds ...string) *fakePayments {
	f := &fakePayments{verified: make(map[string]int)}
	for _, id := range paymentIds {
		f.pending = append(f.pending, &models.PaymentRequest{
			PaymentId: id,
			AssetCode: models.AssetTON,
			Status:    models.StatusPending,
		})
	}
	return f
}

func (f *fakePayments) ExpireOverdue(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 0, nil
}

func (f *fakePayments) ListPending(_ context.Context) ([]*models.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.PaymentRequest, len(f.pending))
	copy(out, f.pending)
	return out, nil
}

func (f *fakePayments) VerifyPayment(_ context.Context, paymentId string) (*models.VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified[paymentId]++
	return &models.VerifyResult{
		PaymentId: paymentId,
		Matched:   false,
		Status:    models.StatusPending,
	}, nil
}

func (f *fakePayments) verifyCount(paymentId string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verified[paymentId]
}

func (f *fakePayments) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestWatcher_VerifiesEveryPendingPayment(t *testing.T) {
	fake := newFakePayments("ton-poll-1", "btc-poll-2")
	watcher := NewWatcher(fake, models.WatcherConfig{
		PollInterval:    10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})

	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fake.verifyCount("ton-poll-1") > 0 && fake.verifyCount("btc-poll-2") > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	watcher.Stop()

	if fake.verifyCount("ton-poll-1") == 0 {
		t.Error("ton-poll-1 was never verified")
	}
	if fake.verifyCount("btc-poll-2") == 0 {
		t.Error("btc-poll-2 was never verified")
	}
	if fake.sweepCount() == 0 {
		t.Error("Expire sweep never ran")
	}
}

func TestWatcher_StopHaltsPolling(t *testing.T) {
	fake := newFakePayments()
	watcher := NewWatcher(fake, models.WatcherConfig{
		PollInterval:    10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})

	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(35 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		watcher.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	before := fake.sweepCount()
	time.Sleep(50 * time.Millisecond)
	if after := fake.sweepCount(); after != before {
		t.Errorf("Poll loop kept running after Stop: %d -> %d sweeps", before, after)
	}
}

func TestWatcher_ContextCancelStopsLoop(t *testing.T) {
	fake := newFakePayments("ton-poll-3")
	watcher := NewWatcher(fake, models.WatcherConfig{
		PollInterval:    10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	select {
	case <-watcher.doneChan:
	case <-time.After(time.Second):
		t.Fatal("Poll loop did not exit on context cancel")
	}
}
