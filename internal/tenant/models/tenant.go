package models

import (
	"net/http"
	"strings"
	"time"

	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
)

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// Tenant is an isolated issuer with its own clients, token lifetimes, and UI.
//
// When a tenant is inactive every flow for its clients fails, even if the
// client itself is active.
type Tenant struct {
	ID             id.TenantID
	Name           string
	Status         TenantStatus
	Issuer         string
	LoginPageURI   string
	ConsentPageURI string
	Tokens         TokenConfig
	Cookies        CookieConfig
}

// TokenConfig holds per-tenant lifetimes.
type TokenConfig struct {
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	IDTokenTTL          time.Duration
	SSOTokenTTL         time.Duration
	AuthorizeSessionTTL time.Duration
	ConsentSessionTTL   time.Duration
	CodeTTL             time.Duration
}

// CookieConfig controls the attributes of the token cookies.
type CookieConfig struct {
	Domain   string
	Path     string
	SameSite http.SameSite
	Secure   bool
	HTTPOnly bool
}

// DefaultTokenConfig is applied to any lifetime a tenant leaves unset.
var DefaultTokenConfig = TokenConfig{
	AccessTokenTTL:      15 * time.Minute,
	RefreshTokenTTL:     30 * 24 * time.Hour,
	IDTokenTTL:          time.Hour,
	SSOTokenTTL:         30 * 24 * time.Hour,
	AuthorizeSessionTTL: 15 * time.Minute,
	ConsentSessionTTL:   15 * time.Minute,
	CodeTTL:             10 * time.Minute,
}

// WithDefaults fills zero lifetimes from DefaultTokenConfig.
func (c TokenConfig) WithDefaults() TokenConfig {
	d := DefaultTokenConfig
	pick := func(v, def time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return v
	}
	return TokenConfig{
		AccessTokenTTL:      pick(c.AccessTokenTTL, d.AccessTokenTTL),
		RefreshTokenTTL:     pick(c.RefreshTokenTTL, d.RefreshTokenTTL),
		IDTokenTTL:          pick(c.IDTokenTTL, d.IDTokenTTL),
		SSOTokenTTL:         pick(c.SSOTokenTTL, d.SSOTokenTTL),
		AuthorizeSessionTTL: pick(c.AuthorizeSessionTTL, d.AuthorizeSessionTTL),
		ConsentSessionTTL:   pick(c.ConsentSessionTTL, d.ConsentSessionTTL),
		CodeTTL:             pick(c.CodeTTL, d.CodeTTL),
	}
}

func (t *Tenant) IsActive() bool {
	return t.Status == "" || t.Status == TenantStatusActive
}

// Validate checks the tenant invariants.
func (t *Tenant) Validate() error {
	if t.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant id cannot be empty")
	}
	if len(t.Name) > 128 {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if t.Issuer == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant issuer cannot be empty")
	}
	if t.LoginPageURI == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant login page cannot be empty")
	}
	return nil
}

// ParseSameSite maps the configured name onto http.SameSite.
func ParseSameSite(name string) http.SameSite {
	switch strings.ToLower(name) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax", "":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
