package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunPurger deletes expired entries from p every interval until ctx is
// cancelled. A non-positive interval returns immediately.
func RunPurger(ctx context.Context, p Purger, interval time.Duration) {
	if interval <= 0 {
		return
	}

	log := zap.L().With(zap.String("component", "cache.purger"))
	log.Info("starting cache purger", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("cache purger stopped")
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				log.Warn("cache: purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("cache: purged expired entries", zap.Int64("deleted", n))
			}
		}
	}
}
