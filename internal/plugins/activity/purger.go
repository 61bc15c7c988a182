package activity

import (
	"context"
	"log/slog"
	"time"
)

// RunPurger deletes records older than retention once at start and then
// every interval until ctx is cancelled. A zero retention disables it.
func RunPurger(ctx context.Context, service ActivityService, retention, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := service.Purge(ctx, retention); err != nil && ctx.Err() == nil {
			slog.Warn("activity purge failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
