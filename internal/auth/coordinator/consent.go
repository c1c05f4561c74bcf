package coordinator

import (
	"context"

	"guardian/internal/auth/models"
	tenantModel "guardian/internal/tenant/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/requestcontext"
)

// AcceptConsent records the scopes the user approved and issues the code.
// Approved scopes outside the original request are ignored. The stored grant
// becomes the union of prior consent and this approval. userID, when set,
// must be the user who logged in.
func (c *Coordinator) AcceptConsent(ctx context.Context, tenantID id.TenantID, challenge string, userID id.UserID, consented []string) (_ *models.Redirect, err error) {
	ctx, span := c.startSpan(ctx, "coordinator.AcceptConsent", tenantID)
	defer func() { endSpan(span, err) }()

	sess, t, err := c.takeConsent(ctx, tenantID, challenge, userID)
	if err != nil {
		return nil, err
	}
	req := sess.Request

	granted := models.IntersectScopes(consented, req.Scopes)
	if len(granted) == 0 {
		return nil, c.redirectError(ctx, req, models.ErrAccessDenied, "no requested scope was consented", nil)
	}

	stored := models.UnionScopes(sess.PriorConsent, granted)
	if err := c.consents.Put(ctx, tenantID, sess.ClientID, sess.Identity.UserID, stored); err != nil {
		return nil, c.redirectError(ctx, req, models.ErrServerError, "", err)
	}

	// Previously consented scopes that were requested again stay granted
	// without a second prompt.
	scopes := models.IntersectScopes(req.Scopes, models.UnionScopes(granted, sess.PriorConsent))

	c.logger.InfoContext(ctx, "consent accepted",
		"tenant_id", tenantID.String(),
		"client_id", sess.ClientID.String(),
		"user_id", sess.Identity.UserID.String(),
		"scopes", models.JoinScope(scopes),
	)
	return c.issueCode(ctx, t, sess.ClientID, req, sess.Identity, scopes, requestcontext.Now(ctx))
}

// RejectConsent ends the flow with access_denied.
func (c *Coordinator) RejectConsent(ctx context.Context, tenantID id.TenantID, challenge string, userID id.UserID) (_ *models.Redirect, err error) {
	ctx, span := c.startSpan(ctx, "coordinator.RejectConsent", tenantID)
	defer func() { endSpan(span, err) }()

	sess, _, err := c.takeConsent(ctx, tenantID, challenge, userID)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "consent rejected",
		"tenant_id", tenantID.String(),
		"client_id", sess.ClientID.String(),
		"user_id", sess.Identity.UserID.String(),
	)
	re := models.NewRedirectError(models.ErrAccessDenied, "the user denied the request", sess.Request.RedirectURI, sess.Request.State)
	return &models.Redirect{
		State:    models.StateDenied,
		Location: re.Location(),
	}, nil
}

func (c *Coordinator) takeConsent(ctx context.Context, tenantID id.TenantID, challenge string, userID id.UserID) (*models.ConsentSession, *tenantModel.Tenant, error) {
	if challenge == "" {
		return nil, nil, dErrors.New(dErrors.CodeInvalidRequest, "consent_challenge is required")
	}
	t, err := c.loadTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	sess, err := c.sessions.TakeConsentSession(ctx, tenantID, challenge)
	if err != nil {
		return nil, nil, challengeError(err, "consent challenge is invalid or expired")
	}
	// The session is consumed by now; a different user ends the flow at the client.
	if !userID.IsNil() && userID != sess.Identity.UserID {
		c.logger.WarnContext(ctx, "consent by a different user",
			"tenant_id", tenantID.String(),
			"client_id", sess.ClientID.String(),
		)
		return nil, nil, c.redirectError(ctx, sess.Request, models.ErrAccessDenied, "user does not match the consent session", nil)
	}
	return sess, t, nil
}
