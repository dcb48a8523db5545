package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ActivityExpirer removes activity entries older than a given age.
type ActivityExpirer interface {
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) error
}

// RetentionWorker periodically trims the activity log.
type RetentionWorker struct {
	expirer  ActivityExpirer
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewRetentionWorker builds a worker that runs every interval.
func NewRetentionWorker(expirer ActivityExpirer, maxAge, interval time.Duration, logger *zap.Logger) *RetentionWorker {
	return &RetentionWorker{expirer: expirer, maxAge: maxAge, interval: interval, logger: logger}
}

// Run expires once immediately and then on every tick until ctx is done.
// Failed runs are logged and retried on the next tick.
func (w *RetentionWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting activity retention task",
		zap.Duration("interval", w.interval), zap.Duration("max_age", w.maxAge))
	w.expire(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("activity retention task stopped")
			return nil
		case <-ticker.C:
			w.expire(ctx)
		}
	}
}

func (w *RetentionWorker) expire(ctx context.Context) {
	if err := w.expirer.ExpireOlderThan(ctx, w.maxAge); err != nil {
		w.logger.Error("failed to expire activities", zap.Error(err))
	}
}
