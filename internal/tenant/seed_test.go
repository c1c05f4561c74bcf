package tenant

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authModel "guardian/internal/auth/models"
	"guardian/internal/tenant/models"
)

const seedJSON = `{
  "tenants": [{
    "id": "acme",
    "name": "Acme",
    "issuer": "https://id.acme.test",
    "login_page_uri": "https://login.acme.test",
    "consent_page_uri": "https://login.acme.test/consent",
    "tokens": {"access_token_ttl": "5m", "code_ttl": 120},
    "cookies": {"domain": ".acme.test", "same_site": "strict", "secure": false},
    "clients": [{
      "client_id": "web",
      "client_secret": "s3cret",
      "redirect_uris": ["https://app.acme.test/cb"],
      "grant_types": ["authorization_code", "refresh_token", "client_credentials"],
      "allowed_scopes": ["openid", "profile"],
      "client_type": "first_party"
    }]
  }]
}`

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	require.NoError(t, os.WriteFile(path, []byte(seedJSON), 0o600))

	r := NewRegistry()
	n, err := LoadSeedFile(r, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tnt, err := r.Tenant(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, tnt.Tokens.AccessTokenTTL)
	assert.Equal(t, 2*time.Minute, tnt.Tokens.CodeTTL)
	assert.Equal(t, models.DefaultTokenConfig.RefreshTokenTTL, tnt.Tokens.RefreshTokenTTL)
	assert.Equal(t, http.SameSiteStrictMode, tnt.Cookies.SameSite)
	assert.False(t, tnt.Cookies.Secure)
	assert.True(t, tnt.Cookies.HTTPOnly)
	assert.Equal(t, "/", tnt.Cookies.Path)

	c, err := r.Authenticate(context.Background(), "acme", "web", "s3cret")
	require.NoError(t, err)
	assert.True(t, c.ShouldSkipConsent())
	assert.True(t, c.CanUseGrant(authModel.GrantClientCredentials))
}

func TestApplyRejectsBadSeed(t *testing.T) {
	t.Run("invalid tenant id", func(t *testing.T) {
		_, err := Apply(NewRegistry(), Seed{Tenants: []TenantSeed{{ID: "bad id", Issuer: "x", LoginPageURI: "y"}}})
		assert.Error(t, err)
	})

	t.Run("client without redirect uris", func(t *testing.T) {
		_, err := Apply(NewRegistry(), Seed{Tenants: []TenantSeed{{
			ID: "acme", Issuer: "x", LoginPageURI: "y",
			Clients: []ClientSeed{{ClientID: "web", GrantTypes: []string{"authorization_code"}, AllowedScopes: []string{"openid"}}},
		}}})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSeedFile(NewRegistry(), filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}
