package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher is anything that can refresh the booking lists.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// StartRefreshPoller refreshes on every tick until ctx is cancelled. It
// blocks; run it in its own goroutine. Failed refreshes are logged and the
// poller carries on at the next tick without retrying.
func StartRefreshPoller(ctx context.Context, r Refresher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("refresh poller started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh poller stopped")
			return
		case <-ticker.C:
			if err := r.RefreshAll(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("scheduled booking refresh failed", zap.Error(err))
			}
		}
	}
}
