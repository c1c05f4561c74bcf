package token

import (
	"context"
	"errors"

	"guardian/internal/auth/models"
	jwttoken "guardian/internal/jwt_token"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
	"guardian/pkg/requestcontext"
)

var errInvalidRefreshToken = dErrors.New(dErrors.CodeUnauthorized, "refresh token is invalid or expired")

// Rotate trades a refresh token for a new token set. requestedScope may
// narrow the scopes bound to the refresh token, never widen them. Of any
// number of concurrent rotations of the same token, exactly one succeeds.
func (i *Issuer) Rotate(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, oldToken, requestedScope string) (_ *models.TokenSet, err error) {
	ctx, span := i.startSpan(ctx, "token.Rotate", tenantID, clientID)
	defer func() { endSpan(span, err) }()

	if oldToken == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "refresh_token is required")
	}
	t, client, err := i.resolve(ctx, tenantID, clientID, models.GrantRefreshToken)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	rec, err := i.activeRecord(ctx, tenantID, oldToken)
	if err != nil {
		i.metrics.IncRotation("rejected")
		return nil, err
	}
	if !rec.BelongsTo(tenantID, client.ID) {
		i.metrics.IncRotation("rejected")
		i.logger.WarnContext(ctx, "refresh token presented by another client",
			"tenant_id", tenantID.String(),
			"client_id", client.ID.String(),
			"token_client_id", rec.ClientID.String(),
		)
		return nil, errInvalidRefreshToken
	}
	i.checkDevice(ctx, rec)

	scopes := rec.Scopes
	if requested := models.ParseScope(requestedScope); len(requested) > 0 {
		if !models.ScopesSubset(requested, rec.Scopes) {
			i.metrics.IncRotation("rejected")
			return nil, dErrors.New(dErrors.CodeInvalidScope, "requested scope exceeds the original grant")
		}
		scopes = requested
	}

	refresh, err := i.tokenGen()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}
	next := &models.RefreshTokenRecord{
		Token:       refresh,
		TenantID:    tenantID,
		ClientID:    client.ID,
		UserID:      rec.UserID,
		Scopes:      scopes,
		AuthMethods: rec.AuthMethods,
		Device:      rec.Device,
		Active:      true,
		RotatedFrom: oldToken,
		IssuedAt:    now,
		ExpiresAt:   now.Add(t.Tokens.RefreshTokenTTL),
	}

	identity := models.Identity{UserID: rec.UserID, AuthMethods: rec.AuthMethods}
	access := i.accessClaims(t, client.ID, rec.UserID.String(), scopes, rec.AuthMethods, refresh, now)
	var idClaims *jwttoken.Claims
	if models.HasOpenID(scopes) {
		idClaims = i.idClaims(t, client.ID, identity, scopes, "", now)
	}
	accessToken, idToken, err := i.sign(access, idClaims)
	if err != nil {
		return nil, err
	}

	if err := i.refresh.Rotate(ctx, tenantID, oldToken, next); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			i.metrics.IncRotation("conflict")
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "refresh token was already used")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rotate refresh token")
	}
	i.metrics.IncRotation("success")

	set := &models.TokenSet{
		AccessToken:      accessToken,
		TokenType:        models.TokenTypeBearer,
		ExpiresIn:        seconds(t.Tokens.AccessTokenTTL),
		RefreshToken:     refresh,
		IDToken:          idToken,
		Scope:            models.JoinScope(scopes),
		RefreshExpiresIn: seconds(t.Tokens.RefreshTokenTTL),
	}
	i.countMinted(set)

	i.logger.InfoContext(ctx, "refresh token rotated",
		"tenant_id", tenantID.String(),
		"client_id", client.ID.String(),
		"user_id", rec.UserID.String(),
	)
	return set, nil
}

// checkDevice logs when the refreshing user agent no longer matches the one
// the token was issued to. Drift alone never fails a rotation.
func (i *Issuer) checkDevice(ctx context.Context, rec *models.RefreshTokenRecord) {
	if i.devices == nil {
		return
	}
	stored := i.devices.ComputeFingerprint(rec.Device.UserAgent)
	current := i.devices.ComputeFingerprint(requestcontext.UserAgent(ctx))
	if _, drift := i.devices.CompareFingerprints(stored, current); drift {
		i.metrics.IncRotation("device_drift")
		i.logger.WarnContext(ctx, "refresh token used from a different device",
			"tenant_id", rec.TenantID.String(),
			"client_id", rec.ClientID.String(),
			"user_id", rec.UserID.String(),
			"device_name", rec.Device.DeviceName,
		)
	}
}

// ValidateRefreshToken resolves the user behind an active refresh token. The
// login and consent endpoints use it to identify the browser session.
func (i *Issuer) ValidateRefreshToken(ctx context.Context, tenantID id.TenantID, token string) (_ id.UserID, err error) {
	ctx, span := i.startSpan(ctx, "token.ValidateRefreshToken", tenantID, "")
	defer func() { endSpan(span, err) }()

	if token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "refresh token is required")
	}
	rec, err := i.activeRecord(ctx, tenantID, token)
	if err != nil {
		return "", err
	}
	return rec.UserID, nil
}

// ValidateSession resolves the browser session behind a login or consent
// answer. An SSO token takes precedence over a refresh token. The identity's
// auth methods come from the stored token, never from the caller.
func (i *Issuer) ValidateSession(ctx context.Context, tenantID id.TenantID, ssoToken, refreshToken string) (_ models.Identity, err error) {
	ctx, span := i.startSpan(ctx, "token.ValidateSession", tenantID, "")
	defer func() { endSpan(span, err) }()

	switch {
	case ssoToken != "":
		rec, err := i.activeSSO(ctx, tenantID, ssoToken)
		if err != nil {
			return models.Identity{}, err
		}
		return models.Identity{UserID: rec.UserID, AuthMethods: rec.AuthMethods, SSOToken: rec.Token}, nil
	case refreshToken != "":
		rec, err := i.activeRecord(ctx, tenantID, refreshToken)
		if err != nil {
			return models.Identity{}, err
		}
		return models.Identity{UserID: rec.UserID, AuthMethods: rec.AuthMethods}, nil
	default:
		return models.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "no session token was presented")
	}
}

var errInvalidSSOToken = dErrors.New(dErrors.CodeUnauthorized, "sso token is invalid or expired")

// activeSSO loads an SSO token that is active, unexpired and not covered by
// a bulk revocation of its user or issuing client.
func (i *Issuer) activeSSO(ctx context.Context, tenantID id.TenantID, token string) (*models.SSOTokenRecord, error) {
	rec, err := i.sso.FindSSO(ctx, tenantID, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errInvalidSSOToken
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sso token")
	}
	if !rec.Active || rec.IsExpired(requestcontext.Now(ctx)) {
		return nil, errInvalidSSOToken
	}
	covered, err := i.ledger.IsCovered(ctx, tenantID, rec.IssuedAt, revocationScopes(rec.UserID, rec.ClientIDIssuedTo)...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check revocation")
	}
	if covered {
		return nil, errInvalidSSOToken
	}
	return rec, nil
}

// activeRecord loads a refresh token that is active, unexpired and not
// covered by a bulk revocation.
func (i *Issuer) activeRecord(ctx context.Context, tenantID id.TenantID, token string) (*models.RefreshTokenRecord, error) {
	rec, err := i.refresh.Find(ctx, tenantID, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errInvalidRefreshToken
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load refresh token")
	}
	if !rec.Active || rec.IsExpired(requestcontext.Now(ctx)) {
		return nil, errInvalidRefreshToken
	}
	covered, err := i.ledger.IsCovered(ctx, tenantID, rec.IssuedAt, revocationScopes(rec.UserID, rec.ClientID)...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check revocation")
	}
	if covered {
		return nil, errInvalidRefreshToken
	}
	return rec, nil
}
