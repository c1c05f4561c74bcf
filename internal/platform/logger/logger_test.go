package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/platform/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json handler filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(config.Log{Level: "warn", Format: "json"}, &buf)

		log.Info("dropped")
		log.Warn("kept", "tenant_id", "acme")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "acme", entry["tenant_id"])
		assert.Equal(t, "guardian", entry["service"])
	})

	t.Run("text handler", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(config.Log{Level: "debug", Format: "text"}, &buf)
		log.Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
