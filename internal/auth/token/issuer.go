// Package token mints, rotates and revokes the tokens handed out at the token
// endpoint: signed access and ID tokens, opaque refresh tokens and, for
// first-party clients, an opaque SSO token bound to the refresh token.
package token

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"guardian/internal/auth/models"
	"guardian/internal/auth/store/revocation"
	"guardian/internal/platform/metrics"
	tenantModel "guardian/internal/tenant/models"
	"guardian/internal/tenant/secrets"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
)

// Typ header values for the JWTs guardian signs.
const (
	typAccessToken = "at+jwt"
	typIDToken     = "JWT"
)

var (
	attrTenantID = attribute.Key("guardian.tenant_id")
	attrClientID = attribute.Key("guardian.client_id")
)

type TenantRepo interface {
	Tenant(ctx context.Context, tenantID id.TenantID) (*tenantModel.Tenant, error)
}

type ClientRepo interface {
	Get(ctx context.Context, tenantID id.TenantID, clientID id.ClientID) (*tenantModel.Client, error)
}

// RefreshTokenStore persists refresh tokens. Rotate must deactivate oldToken
// and insert next atomically, failing with sentinel.ErrAlreadyUsed when
// oldToken is no longer active.
type RefreshTokenStore interface {
	Create(ctx context.Context, rec *models.RefreshTokenRecord) error
	Find(ctx context.Context, tenantID id.TenantID, token string) (*models.RefreshTokenRecord, error)
	Rotate(ctx context.Context, tenantID id.TenantID, oldToken string, next *models.RefreshTokenRecord) error
	Deactivate(ctx context.Context, tenantID id.TenantID, token string, clientID id.ClientID) error
	DeactivateForUser(ctx context.Context, tenantID id.TenantID, userID id.UserID) (int64, error)
	DeactivateForClient(ctx context.Context, tenantID id.TenantID, clientID id.ClientID) (int64, error)
	DeactivateForTenant(ctx context.Context, tenantID id.TenantID) (int64, error)
}

// SSOTokenStore persists SSO tokens. AddSSOClient fails with
// sentinel.ErrNotFound when the token is unknown or inactive.
type SSOTokenStore interface {
	CreateSSO(ctx context.Context, rec *models.SSOTokenRecord) error
	FindSSO(ctx context.Context, tenantID id.TenantID, token string) (*models.SSOTokenRecord, error)
	AddSSOClient(ctx context.Context, tenantID id.TenantID, token string, clientID id.ClientID) error
}

type Signer interface {
	Sign(claims jwt.Claims, typ string) (string, error)
}

// DeviceBinder fingerprints user agents so a refresh from a different
// browser than the one the token was issued to can be flagged.
type DeviceBinder interface {
	ComputeFingerprint(userAgent string) string
	CompareFingerprints(stored, current string) (matched bool, drift bool)
}

// Issuer is the token endpoint's back end.
type Issuer struct {
	tenants TenantRepo
	clients ClientRepo
	refresh RefreshTokenStore
	sso     SSOTokenStore
	ledger  revocation.Ledger
	signer  Signer
	devices DeviceBinder

	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	tokenGen func() (string, error)
	jtiGen   func() string
}

type Option func(*Issuer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) {
		i.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Issuer) {
		i.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(i *Issuer) {
		i.tracer = t
	}
}

// WithTokenGenerator replaces the source of opaque refresh and SSO tokens.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(i *Issuer) {
		i.tokenGen = gen
	}
}

// WithDeviceBinder enables device drift warnings on refresh.
func WithDeviceBinder(d DeviceBinder) Option {
	return func(i *Issuer) {
		i.devices = d
	}
}

func New(
	tenants TenantRepo,
	clients ClientRepo,
	refresh RefreshTokenStore,
	sso SSOTokenStore,
	ledger revocation.Ledger,
	signer Signer,
	opts ...Option,
) *Issuer {
	i := &Issuer{
		tenants:  tenants,
		clients:  clients,
		refresh:  refresh,
		sso:      sso,
		ledger:   ledger,
		signer:   signer,
		logger:   slog.Default(),
		tracer:   otel.Tracer("guardian/internal/auth/token"),
		tokenGen: func() (string, error) { return secrets.Generate(32) },
		jtiGen:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) startSpan(ctx context.Context, name string, tenantID id.TenantID, clientID id.ClientID) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attrTenantID.String(tenantID.String())}
	if !clientID.IsNil() {
		attrs = append(attrs, attrClientID.String(clientID.String()))
	}
	return i.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// resolve loads the tenant and client a token request is made under and
// checks the client may use grant.
func (i *Issuer) resolve(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, grant models.GrantType) (*tenantModel.Tenant, *tenantModel.Client, error) {
	t, err := i.tenants.Tenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "unknown tenant")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	c, err := i.clients.Get(ctx, tenantID, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "unknown client")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if !c.CanUseGrant(grant) {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorizedClient, "client is not allowed to use grant "+string(grant))
	}
	return t, c, nil
}
