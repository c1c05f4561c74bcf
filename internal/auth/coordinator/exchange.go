package coordinator

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"guardian/internal/auth/models"
	"guardian/internal/auth/pkce"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
	"guardian/pkg/requestcontext"
)

// ExchangeInput is the authorization_code grant as presented at the token
// endpoint. ClientID is the client that authenticated the request.
type ExchangeInput struct {
	Code         string
	ClientID     id.ClientID
	RedirectURI  string
	CodeVerifier string
}

// ExchangeCode consumes a code and returns the grant it represents. The code
// is deleted on first read, so a code presented twice, or by two concurrent
// callers, succeeds at most once even when the later checks fail.
func (c *Coordinator) ExchangeCode(ctx context.Context, tenantID id.TenantID, in ExchangeInput) (_ *models.Grant, err error) {
	ctx, span := c.startSpan(ctx, "coordinator.ExchangeCode", tenantID)
	defer func() { endSpan(span, err) }()
	defer c.metrics.ObserveCodeExchange(time.Now())

	if in.Code == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "code is required")
	}
	if in.ClientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "client_id is required")
	}
	span.SetAttributes(attrClientID.String(in.ClientID.String()))

	code, err := c.sessions.ConsumeCode(ctx, tenantID, in.Code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidCode, "authorization code is invalid or expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume authorization code")
	}
	if code.IsExpired(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeInvalidCode, "authorization code is invalid or expired")
	}
	if code.ClientID != in.ClientID {
		c.logger.WarnContext(ctx, "authorization code presented by another client",
			"tenant_id", tenantID.String(),
			"client_id", in.ClientID.String(),
			"code_client_id", code.ClientID.String(),
		)
		return nil, dErrors.New(dErrors.CodeInvalidCode, "authorization code was not issued to this client")
	}
	if subtle.ConstantTimeCompare([]byte(code.RedirectURI), []byte(in.RedirectURI)) != 1 {
		return nil, dErrors.New(dErrors.CodeInvalidCode, "redirect_uri does not match the authorization request")
	}
	if err := pkce.Verify(code.CodeChallenge, code.CodeChallengeMethod, in.CodeVerifier); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, err.Error())
	}

	return &models.Grant{
		TenantID: tenantID,
		ClientID: code.ClientID,
		Identity: code.Identity,
		Scopes:   code.Scopes,
		Nonce:    code.Nonce,
	}, nil
}
