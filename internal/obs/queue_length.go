// Copyright 2025 James Ross
package obs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/gbe/internal/config"
)

// StreamGroup names a subject/consumer-group pair to sample pending-entry
// counts for.
type StreamGroup struct {
	Subject string
	Key     string
	Group   string
}

// StartPendingEntriesUpdater periodically samples each stream's pending
// entries list (XPENDING summary) and updates the PendingEntries gauge.
func StartPendingEntriesUpdater(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, log *zap.Logger, groups []StreamGroup) {
	interval := cfg.Sweeper.ScanInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, sg := range groups {
					summary, err := rdb.XPending(ctx, sg.Key, sg.Group).Result()
					if err != nil {
						log.Debug("pending entries poll error", String("subject", sg.Subject), Err(err))
						continue
					}
					PendingEntries.WithLabelValues(sg.Subject, sg.Group).Set(float64(summary.Count))
				}
			}
		}
	}()
}
