// Package coordinator drives the authorization-code flow from the authorize
// request through login and consent to the single-use code exchange.
//
// Every step before redirect_uri has been matched against the client
// registration fails with a direct domain error. Once redirect_uri is known,
// every failure, internal ones included, is a *models.RedirectError so the
// browser goes back to the client rather than stalling on an error page.
package coordinator

//go:generate mockgen -source=coordinator.go -destination=mocks/mocks.go -package=mocks TenantRepo,ClientRepo,ScopeRepo,ConsentRepo,SessionStore

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"guardian/internal/auth/models"
	"guardian/internal/platform/metrics"
	tenantModel "guardian/internal/tenant/models"
	"guardian/internal/tenant/secrets"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
)

type TenantRepo interface {
	Tenant(ctx context.Context, tenantID id.TenantID) (*tenantModel.Tenant, error)
}

type ClientRepo interface {
	Get(ctx context.Context, tenantID id.TenantID, clientID id.ClientID) (*tenantModel.Client, error)
}

// ScopeRepo narrows requested scopes to what the client may be granted.
type ScopeRepo interface {
	Resolve(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, requested []string) ([]string, error)
}

type ConsentRepo interface {
	Get(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID) ([]string, error)
	Put(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID, scopes []string) error
}

// SessionStore persists the three waiting states of the flow. Take and
// Consume must be atomic get-and-delete operations.
type SessionStore interface {
	SaveAuthorizeSession(ctx context.Context, sess *models.AuthorizeSession) error
	TakeAuthorizeSession(ctx context.Context, tenantID id.TenantID, challenge string) (*models.AuthorizeSession, error)
	SaveConsentSession(ctx context.Context, sess *models.ConsentSession) error
	TakeConsentSession(ctx context.Context, tenantID id.TenantID, challenge string) (*models.ConsentSession, error)
	SaveCode(ctx context.Context, code *models.AuthorizationCode) error
	ConsumeCode(ctx context.Context, tenantID id.TenantID, code string) (*models.AuthorizationCode, error)
}

// Coordinator is the authorization session state machine.
type Coordinator struct {
	tenants  TenantRepo
	clients  ClientRepo
	scopes   ScopeRepo
	consents ConsentRepo
	sessions SessionStore

	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	codeGen      func() (string, error)
	challengeGen func() string
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = t
	}
}

// WithCodeGenerator replaces the random code source. Tests use it to make
// codes predictable.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(c *Coordinator) {
		c.codeGen = gen
	}
}

// WithChallengeGenerator replaces the login and consent challenge source.
func WithChallengeGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		c.challengeGen = gen
	}
}

func New(tenants TenantRepo, clients ClientRepo, scopes ScopeRepo, consents ConsentRepo, sessions SessionStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		tenants:      tenants,
		clients:      clients,
		scopes:       scopes,
		consents:     consents,
		sessions:     sessions,
		logger:       slog.Default(),
		tracer:       otel.Tracer("guardian/internal/auth/coordinator"),
		codeGen:      func() (string, error) { return secrets.Generate(32) },
		challengeGen: newChallenge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) startSpan(ctx context.Context, name string, tenantID id.TenantID) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrTenantID.String(tenantID.String())))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// loadTenant resolves the tenant before anything else. An unknown or inactive
// tenant is a direct error.
func (c *Coordinator) loadTenant(ctx context.Context, tenantID id.TenantID) (*tenantModel.Tenant, error) {
	t, err := c.tenants.Tenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "unknown tenant")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tenant")
	}
	return t, nil
}

// redirectError builds the client-facing error for req and logs internal
// causes so they are not lost behind a generic server_error.
func (c *Coordinator) redirectError(ctx context.Context, req models.AuthorizeRequest, code models.ErrorCode, desc string, cause error) *models.RedirectError {
	if code == models.ErrServerError && cause != nil {
		c.logger.ErrorContext(ctx, "authorization flow failed",
			"error", cause,
			"redirect_uri", req.RedirectURI,
		)
	}
	return models.WrapRedirectError(cause, code, desc, req.RedirectURI, req.State)
}

// issueCode mints and stores a code for the consented scopes and returns the
// redirect that hands it to the client.
func (c *Coordinator) issueCode(
	ctx context.Context,
	t *tenantModel.Tenant,
	clientID id.ClientID,
	req models.AuthorizeRequest,
	identity models.Identity,
	scopes []string,
	now time.Time,
) (*models.Redirect, error) {
	value, err := c.codeGen()
	if err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}
	code := &models.AuthorizationCode{
		Code:                value,
		TenantID:            t.ID,
		ClientID:            clientID,
		Identity:            identity,
		Scopes:              scopes,
		RedirectURI:         req.RedirectURI,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		CreatedAt:           now,
		ExpiresAt:           now.Add(t.Tokens.CodeTTL),
	}
	if err := c.sessions.SaveCode(ctx, code); err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}
	c.metrics.IncCodeIssued()

	params := url.Values{}
	params.Set("code", value)
	if req.State != "" {
		params.Set("state", req.State)
	}
	return &models.Redirect{
		State:    models.StateCodeIssued,
		Location: models.AppendQuery(req.RedirectURI, params),
	}, nil
}
