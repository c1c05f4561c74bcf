package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/auth/models"
	refreshtoken "guardian/internal/auth/store/refresh-token"
)

type failingExpirer struct{}

func (failingExpirer) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestCleanupOnce(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store := refreshtoken.New()
	require.NoError(t, store.Create(ctx, &models.RefreshTokenRecord{
		Token: "old", TenantID: "acme", ClientID: "console", UserID: "user-1",
		Active: true, IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, store.Create(ctx, &models.RefreshTokenRecord{
		Token: "live", TenantID: "acme", ClientID: "console", UserID: "user-1",
		Active: true, IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	cleanupOnce(ctx, store, now, log)

	_, err := store.Find(ctx, "acme", "old")
	assert.Error(t, err)
	_, err = store.Find(ctx, "acme", "live")
	assert.NoError(t, err)

	assert.NotPanics(t, func() { cleanupOnce(ctx, failingExpirer{}, now, log) })
}

func TestRunCleanupStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runCleanup(ctx, failingExpirer{}, time.Millisecond, time.Now, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
