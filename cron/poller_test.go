package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingRefresher struct {
	calls int32
	hit   chan struct{}
}

func (c *countingRefresher) RefreshAll(context.Context) error {
	if atomic.AddInt32(&c.calls, 1) == 2 {
		close(c.hit)
	}
	return nil
}

func TestPollerRefreshesUntilCancelled(t *testing.T) {
	r := &countingRefresher{hit: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartRefreshPoller(ctx, r, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	select {
	case <-r.hit:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not refresh twice")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}

func TestPollerDisabledReturnsImmediately(t *testing.T) {
	r := &countingRefresher{hit: make(chan struct{})}
	StartRefreshPoller(context.Background(), r, 0, zap.NewNop())
	if atomic.LoadInt32(&r.calls) != 0 {
		t.Fatal("disabled poller refreshed")
	}
}
