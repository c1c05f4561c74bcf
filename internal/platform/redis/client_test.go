package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("connects and reports healthy", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr(), PoolSize: 4})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("rejects empty url", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{})
		require.Error(t, err)
	})

	t.Run("rejects malformed url", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
		require.Error(t, err)
	})

	t.Run("fails when server is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := New(context.Background(), config.RedisConfig{URL: "redis://" + addr})
		require.Error(t, err)
	})
}
