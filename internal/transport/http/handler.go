// Package httptransport exposes the authorization server over HTTP. Handlers
// stay thin: they parse the request, call the coordinator or the token
// issuer, and render the RFC 6749 response.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-jose/go-jose/v4"

	"guardian/internal/auth/coordinator"
	"guardian/internal/auth/models"
	jwttoken "guardian/internal/jwt_token"
	tenantModel "guardian/internal/tenant/models"
	id "guardian/pkg/domain"
	"guardian/pkg/platform/middleware/admin"
	"guardian/pkg/platform/middleware/auth"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Coordinator,Issuer

// Coordinator drives the authorize, login and consent phases and the code
// exchange.
type Coordinator interface {
	Initiate(ctx context.Context, tenantID id.TenantID, in coordinator.AuthorizeInput) (*models.Redirect, error)
	AcceptLogin(ctx context.Context, tenantID id.TenantID, challenge string, identity models.Identity) (*models.Redirect, error)
	AcceptConsent(ctx context.Context, tenantID id.TenantID, challenge string, userID id.UserID, consented []string) (*models.Redirect, error)
	RejectConsent(ctx context.Context, tenantID id.TenantID, challenge string, userID id.UserID) (*models.Redirect, error)
	ExchangeCode(ctx context.Context, tenantID id.TenantID, in coordinator.ExchangeInput) (*models.Grant, error)
}

// Issuer mints, rotates and revokes tokens.
type Issuer interface {
	Mint(ctx context.Context, grant *models.Grant, meta models.DeviceMetadata) (*models.TokenSet, error)
	Rotate(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, oldToken, requestedScope string) (*models.TokenSet, error)
	ClientCredentials(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, scope string) (*models.TokenSet, error)
	Revoke(ctx context.Context, target models.RevocationTarget) error
	IsRevoked(ctx context.Context, meta models.TokenMeta) (bool, error)
	ValidateRefreshToken(ctx context.Context, tenantID id.TenantID, token string) (id.UserID, error)
	ValidateSession(ctx context.Context, tenantID id.TenantID, ssoToken, refreshToken string) (models.Identity, error)
}

type Tenants interface {
	Tenant(ctx context.Context, tenantID id.TenantID) (*tenantModel.Tenant, error)
	Authenticate(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, secret string) (*tenantModel.Client, error)
}

type Devices interface {
	Metadata(ctx context.Context, source string) models.DeviceMetadata
}

// KeyPublisher exposes the public half of the signing keys.
type KeyPublisher interface {
	PublicJWKS() jose.JSONWebKeySet
	Algorithm() string
}

// Handler serves every tenant-scoped endpoint.
type Handler struct {
	coordinator Coordinator
	issuer      Issuer
	tenants     Tenants
	devices     Devices
	credentials CredentialVerifier
	keys        KeyPublisher
	keySource   jwttoken.KeySource

	logger     *slog.Logger
	leeway     time.Duration
	adminToken string
	throttle   func(http.Handler) http.Handler
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithLeeway tolerates clock drift when verifying bearer tokens.
func WithLeeway(d time.Duration) Option {
	return func(h *Handler) {
		h.leeway = d
	}
}

// WithAdminToken enables the admin endpoints. Without it they reject every
// request.
func WithAdminToken(token string) Option {
	return func(h *Handler) {
		h.adminToken = token
	}
}

// WithThrottle wraps the endpoints that accept credentials (login accept,
// token and revoke) with a rate limiting middleware.
func WithThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.throttle = mw
	}
}

// New builds the handler. keySource verifies bearer tokens at userinfo; it
// is usually the signer's own keys, or a remote JWKS when verification is
// delegated.
func New(
	coord Coordinator,
	issuer Issuer,
	tenants Tenants,
	devices Devices,
	credentials CredentialVerifier,
	keys KeyPublisher,
	keySource jwttoken.KeySource,
	opts ...Option,
) *Handler {
	h := &Handler{
		coordinator: coord,
		issuer:      issuer,
		tenants:     tenants,
		devices:     devices,
		credentials: credentials,
		keys:        keys,
		keySource:   keySource,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the tenant-scoped routes. The caller has already placed
// the tenant in the request context.
func (h *Handler) Register(r chi.Router) {
	r.Get("/authorize", h.handleAuthorize)
	r.Post("/consent/accept", h.handleAcceptConsent)
	r.Post("/consent/reject", h.handleRejectConsent)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		if h.throttle != nil {
			r.Use(h.throttle)
		}
		r.Post("/login/accept", h.handleAcceptLogin)
		r.Post("/token", h.handleToken)
		r.Post("/revoke", h.handleRevoke)
	})

	r.Get("/.well-known/jwks.json", h.handleJWKS)
	r.Get("/.well-known/openid-configuration", h.handleDiscovery)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h, h, h.logger))
		r.Get("/userinfo", h.handleUserInfo)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/admin/logout", h.handleAdminLogout)
	})
}

// redirectResponse carries the next browser location to the login or
// consent UI, which performs the navigation itself.
type redirectResponse struct {
	RedirectURI string `json:"redirect_uri"`
}
