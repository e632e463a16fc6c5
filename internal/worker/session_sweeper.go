package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper evicts idle in-memory sessions.
type Sweeper interface {
	Sweep(now time.Time) int
}

// RunSessionSweeper sweeps on every tick until ctx is cancelled. Evicted
// sessions stay in redis and are rebuilt on their next request.
func RunSessionSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) {
	if sweeper == nil || interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sweeper.Sweep(now); n > 0 {
				logger.Debug("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}
