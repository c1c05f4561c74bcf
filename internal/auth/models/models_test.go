package models

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopes(t *testing.T) {
	t.Run("parse drops blanks and duplicates", func(t *testing.T) {
		assert.Equal(t, []string{"openid", "profile"}, ParseScope("  openid profile openid "))
		assert.Empty(t, ParseScope(""))
	})

	t.Run("intersect keeps requested order", func(t *testing.T) {
		assert.Equal(t, []string{"profile", "openid"},
			IntersectScopes([]string{"profile", "admin", "openid"}, []string{"openid", "profile", "email"}))
	})

	t.Run("union is duplicate free", func(t *testing.T) {
		assert.Equal(t, []string{"openid", "email", "profile"},
			UnionScopes([]string{"openid", "email"}, []string{"email", "profile"}))
	})

	t.Run("subset", func(t *testing.T) {
		assert.True(t, ScopesSubset([]string{"openid"}, []string{"openid", "profile"}))
		assert.False(t, ScopesSubset([]string{"admin"}, []string{"openid"}))
		assert.True(t, ScopesSubset(nil, []string{"openid"}))
	})

	t.Run("openid detection", func(t *testing.T) {
		assert.True(t, HasOpenID([]string{"profile", "openid"}))
		assert.False(t, HasOpenID([]string{"profile"}))
	})
}

func TestRedirectError(t *testing.T) {
	t.Run("location carries error, description and state", func(t *testing.T) {
		re := NewRedirectError(ErrInvalidScope, "", "https://app.example.com/cb?x=1", "xyz")
		u, err := url.Parse(re.Location())
		require.NoError(t, err)

		q := u.Query()
		assert.Equal(t, "invalid_scope", q.Get("error"))
		assert.NotEmpty(t, q.Get("error_description"))
		assert.Equal(t, "xyz", q.Get("state"))
		assert.Equal(t, "1", q.Get("x"))
		assert.Equal(t, "app.example.com", u.Host)
	})

	t.Run("omits empty state", func(t *testing.T) {
		re := NewRedirectError(ErrAccessDenied, "user declined", "https://app.example.com/cb", "")
		u, err := url.Parse(re.Location())
		require.NoError(t, err)
		_, hasState := u.Query()["state"]
		assert.False(t, hasState)
		assert.Equal(t, "user declined", u.Query().Get("error_description"))
	})

	t.Run("wraps cause", func(t *testing.T) {
		cause := errors.New("redis down")
		re := WrapRedirectError(cause, ErrServerError, "", "https://app.example.com/cb", "s")
		assert.ErrorIs(t, re, cause)

		var target *RedirectError
		assert.True(t, errors.As(error(re), &target))
	})
}

func TestRecordExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	code := AuthorizationCode{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, code.IsExpired(now))
	assert.True(t, code.IsExpired(now.Add(time.Minute)))

	rt := RefreshTokenRecord{TenantID: "acme", ClientID: "web", ExpiresAt: now}
	assert.True(t, rt.IsExpired(now))
	assert.True(t, rt.BelongsTo("acme", "web"))
	assert.False(t, rt.BelongsTo("acme", "mobile"))
}
