package main

import (
	"context"
	"log/slog"
	"time"
)

type expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// runCleanup purges expired refresh and SSO tokens every interval until ctx
// is done. A non-positive interval disables it.
func runCleanup(ctx context.Context, store expirer, interval time.Duration, now func() time.Time, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupOnce(ctx, store, now(), log)
		}
	}
}

func cleanupOnce(ctx context.Context, store expirer, now time.Time, log *slog.Logger) {
	n, err := store.DeleteExpired(ctx, now)
	if err != nil {
		log.ErrorContext(ctx, "failed to delete expired tokens", "error", err)
		return
	}
	if n > 0 {
		log.InfoContext(ctx, "deleted expired tokens", "count", n)
	}
}
