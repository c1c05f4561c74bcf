package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	t.Run("new error carries code and message", func(t *testing.T) {
		err := New(CodeInvalidCode, "authorization code is invalid")
		require.Error(t, err)
		assert.True(t, HasCode(err, CodeInvalidCode))
		assert.Equal(t, "authorization code is invalid", err.Error())
	})

	t.Run("wrapped cause stays reachable", func(t *testing.T) {
		cause := errors.New("redis down")
		err := Wrap(cause, CodeInternal, "failed to load session")
		assert.ErrorIs(t, err, cause)
		assert.True(t, Is(err, CodeInternal))
		assert.Equal(t, "failed to load session", Message(err))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("exchange: %w", New(CodeUnauthorized, "bad client"))
		code, ok := GetCode(err)
		require.True(t, ok)
		assert.Equal(t, CodeUnauthorized, code)
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		_, ok := GetCode(errors.New("plain"))
		assert.False(t, ok)
		assert.False(t, HasCode(nil, CodeInternal))
	})
}
