package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper evicts idle state and reports how much it removed.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// StartFormJanitor sweeps every interval until ctx is cancelled. The
// returned channel is closed once the loop has stopped.
func StartFormJanitor(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sweeper == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Debug("form janitor stopped")
				return
			case <-ticker.C:
				if n := sweeper.Sweep(ctx); n > 0 {
					logger.Debug("form janitor sweep", zap.Int("evicted", n))
				}
			}
		}
	}()
	return done
}
