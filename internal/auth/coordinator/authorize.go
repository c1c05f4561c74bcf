package coordinator

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"guardian/internal/auth/models"
	"guardian/internal/auth/pkce"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
	"guardian/pkg/requestcontext"
)

var (
	attrTenantID = attribute.Key("guardian.tenant_id")
	attrClientID = attribute.Key("guardian.client_id")
)

func newChallenge() string {
	return uuid.NewString()
}

// AuthorizeInput is the raw authorize query.
type AuthorizeInput struct {
	ClientID            string
	ResponseType        string
	Scope               string
	RedirectURI         string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
	Prompt              string
	LoginHint           string
}

// Initiate validates an authorize request and parks it until the user logs in.
func (c *Coordinator) Initiate(ctx context.Context, tenantID id.TenantID, in AuthorizeInput) (_ *models.Redirect, err error) {
	ctx, span := c.startSpan(ctx, "coordinator.Initiate", tenantID)
	defer func() { endSpan(span, err) }()

	t, err := c.loadTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if in.ClientID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "client_id is required")
	}
	clientID := id.ClientID(in.ClientID)
	span.SetAttributes(attrClientID.String(in.ClientID))

	client, err := c.clients.Get(ctx, tenantID, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "unknown client")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}
	if in.RedirectURI == "" || !client.HasRedirectURI(in.RedirectURI) {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "redirect_uri is not registered for this client")
	}

	req := models.AuthorizeRequest{
		ResponseType:        in.ResponseType,
		RedirectURI:         in.RedirectURI,
		State:               in.State,
		Nonce:               in.Nonce,
		CodeChallenge:       in.CodeChallenge,
		CodeChallengeMethod: models.CodeChallengeMethod(in.CodeChallengeMethod),
		Prompt:              in.Prompt,
		LoginHint:           in.LoginHint,
	}

	if in.ResponseType == "" || !client.SupportsResponseType(in.ResponseType) {
		return nil, c.redirectError(ctx, req, models.ErrUnsupportedResponseType, "", nil)
	}
	if !client.CanUseGrant(models.GrantAuthorizationCode) {
		return nil, c.redirectError(ctx, req, models.ErrUnauthorizedClient, "", nil)
	}

	requested := models.ParseScope(in.Scope)
	if !models.HasOpenID(requested) {
		return nil, c.redirectError(ctx, req, models.ErrInvalidScope, "scope must contain 'openid'", nil)
	}
	allowed, err := c.scopes.Resolve(ctx, tenantID, clientID, requested)
	if err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}
	if !models.HasOpenID(allowed) {
		return nil, c.redirectError(ctx, req, models.ErrInvalidScope, "no requested scope is allowed for this client", nil)
	}
	req.Scopes = allowed

	if !pkce.ValidChallenge(req.CodeChallenge, req.CodeChallengeMethod) {
		return nil, c.redirectError(ctx, req, models.ErrInvalidRequest, "code_challenge and code_challenge_method are invalid", nil)
	}
	switch req.Prompt {
	case "", models.PromptLogin, models.PromptConsent, models.PromptNone, models.PromptSelectAccount:
	default:
		return nil, c.redirectError(ctx, req, models.ErrInvalidRequest, "unsupported prompt value", nil)
	}

	now := requestcontext.Now(ctx)
	sess := &models.AuthorizeSession{
		LoginChallenge: c.challengeGen(),
		TenantID:       tenantID,
		ClientID:       clientID,
		Request:        req,
		CreatedAt:      now,
		ExpiresAt:      now.Add(t.Tokens.AuthorizeSessionTTL),
	}
	if err := c.sessions.SaveAuthorizeSession(ctx, sess); err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}

	params := url.Values{}
	params.Set("login_challenge", sess.LoginChallenge)
	setIfPresent(params, "state", req.State)
	setIfPresent(params, "prompt", req.Prompt)
	setIfPresent(params, "login_hint", req.LoginHint)

	c.logger.InfoContext(ctx, "authorization initiated",
		"tenant_id", tenantID.String(),
		"client_id", clientID.String(),
		"scopes", models.JoinScope(allowed),
	)
	return &models.Redirect{
		State:     models.StateAwaitingLogin,
		Location:  models.AppendQuery(t.LoginPageURI, params),
		Challenge: sess.LoginChallenge,
	}, nil
}

// AcceptLogin binds a verified identity to a pending authorize session. The
// code is issued straight away when the client skips consent or the user has
// already granted every requested scope; otherwise the flow moves to consent.
func (c *Coordinator) AcceptLogin(ctx context.Context, tenantID id.TenantID, challenge string, identity models.Identity) (_ *models.Redirect, err error) {
	ctx, span := c.startSpan(ctx, "coordinator.AcceptLogin", tenantID)
	defer func() { endSpan(span, err) }()

	if challenge == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "login_challenge is required")
	}
	if identity.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "user is required")
	}
	t, err := c.loadTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	sess, err := c.sessions.TakeAuthorizeSession(ctx, tenantID, challenge)
	if err != nil {
		return nil, challengeError(err, "login challenge is invalid or expired")
	}
	req := sess.Request
	span.SetAttributes(attrClientID.String(sess.ClientID.String()))

	client, err := c.clients.Get(ctx, tenantID, sess.ClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil, c.redirectError(ctx, req, models.ErrUnauthorizedClient, "", err)
		}
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}

	now := requestcontext.Now(ctx)
	if identity.AuthTime.IsZero() {
		identity.AuthTime = now
	}

	prior, err := c.consents.Get(ctx, tenantID, sess.ClientID, identity.UserID)
	if err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}

	skip := client.ShouldSkipConsent() ||
		(req.Prompt != models.PromptConsent && models.ScopesSubset(req.Scopes, prior))
	if skip {
		c.logger.InfoContext(ctx, "login accepted, consent skipped",
			"tenant_id", tenantID.String(),
			"client_id", sess.ClientID.String(),
			"user_id", identity.UserID.String(),
		)
		return c.issueCode(ctx, t, sess.ClientID, req, identity, req.Scopes, now)
	}

	consent := &models.ConsentSession{
		ConsentChallenge: c.challengeGen(),
		TenantID:         tenantID,
		ClientID:         sess.ClientID,
		Identity:         identity,
		Request:          req,
		PriorConsent:     prior,
		CreatedAt:        now,
		ExpiresAt:        now.Add(t.Tokens.ConsentSessionTTL),
	}
	if err := c.sessions.SaveConsentSession(ctx, consent); err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}

	params := url.Values{}
	params.Set("consent_challenge", consent.ConsentChallenge)
	params.Set("client_id", sess.ClientID.String())
	params.Set("scope", models.JoinScope(req.Scopes))
	setIfPresent(params, "state", req.State)

	return &models.Redirect{
		State:     models.StateAwaitingConsent,
		Location:  models.AppendQuery(t.ConsentPageURI, params),
		Challenge: consent.ConsentChallenge,
	}, nil
}

// challengeError maps a missing or lapsed session onto CodeInvalidState.
func challengeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		return dErrors.Wrap(err, dErrors.CodeInvalidState, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
}

func setIfPresent(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
