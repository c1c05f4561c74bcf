package token

import (
	"context"
	"crypto/md5" //nolint:gosec // correlation id, not a security boundary
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"guardian/internal/auth/models"
	jwttoken "guardian/internal/jwt_token"
	tenantModel "guardian/internal/tenant/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/sentinel"
	"guardian/pkg/requestcontext"
)

// RefreshTokenID is the rft_id claim value for a refresh token.
func RefreshTokenID(refreshToken string) string {
	sum := md5.Sum([]byte(refreshToken)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Mint issues the token set for an exchanged authorization code. meta
// describes the device the request came from and is stored with the refresh
// token.
func (i *Issuer) Mint(ctx context.Context, grant *models.Grant, meta models.DeviceMetadata) (_ *models.TokenSet, err error) {
	ctx, span := i.startSpan(ctx, "token.Mint", grant.TenantID, grant.ClientID)
	defer func() { endSpan(span, err) }()
	defer i.metrics.ObserveMint(time.Now())

	t, client, err := i.resolve(ctx, grant.TenantID, grant.ClientID, models.GrantAuthorizationCode)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	identity := grant.Identity

	refresh, err := i.tokenGen()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}
	rec := &models.RefreshTokenRecord{
		Token:       refresh,
		TenantID:    t.ID,
		ClientID:    client.ID,
		UserID:      identity.UserID,
		Scopes:      grant.Scopes,
		AuthMethods: identity.AuthMethods,
		Device:      meta,
		Active:      true,
		IssuedAt:    now,
		ExpiresAt:   now.Add(t.Tokens.RefreshTokenTTL),
	}

	sharedSSO, err := i.shareSSO(ctx, t.ID, client.ID, identity.SSOToken)
	if err != nil {
		return nil, err
	}

	var ssoRec *models.SSOTokenRecord
	if client.Type == tenantModel.ClientTypeFirstParty && sharedSSO == nil {
		ssoToken, err := i.tokenGen()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate sso token")
		}
		ssoRec = &models.SSOTokenRecord{
			Token:            ssoToken,
			TenantID:         t.ID,
			UserID:           identity.UserID,
			ClientIDIssuedTo: client.ID,
			RefreshToken:     refresh,
			AuthMethods:      identity.AuthMethods,
			ClientIDsUsedBy:  []id.ClientID{client.ID},
			Active:           true,
			IssuedAt:         now,
			ExpiresAt:        now.Add(t.Tokens.SSOTokenTTL),
		}
	}

	access := i.accessClaims(t, client.ID, identity.UserID.String(), grant.Scopes, identity.AuthMethods, refresh, now)
	var idClaims *jwttoken.Claims
	if models.HasOpenID(grant.Scopes) {
		idClaims = i.idClaims(t, client.ID, identity, grant.Scopes, grant.Nonce, now)
	}
	accessToken, idToken, err := i.sign(access, idClaims)
	if err != nil {
		return nil, err
	}

	if err := i.refresh.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create refresh token")
	}
	if ssoRec != nil {
		if err := i.sso.CreateSSO(ctx, ssoRec); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create sso token")
		}
	}

	set := &models.TokenSet{
		AccessToken:      accessToken,
		TokenType:        models.TokenTypeBearer,
		ExpiresIn:        seconds(t.Tokens.AccessTokenTTL),
		RefreshToken:     refresh,
		IDToken:          idToken,
		Scope:            models.JoinScope(grant.Scopes),
		IsNewUser:        identity.IsNewUser,
		MFAFactors:       mfaFactors(identity.AuthMethods),
		RefreshExpiresIn: seconds(t.Tokens.RefreshTokenTTL),
	}
	switch {
	case ssoRec != nil:
		set.SSOToken = ssoRec.Token
		set.SSOExpiresIn = seconds(t.Tokens.SSOTokenTTL)
	case sharedSSO != nil && client.Type == tenantModel.ClientTypeFirstParty:
		set.SSOToken = sharedSSO.Token
		set.SSOExpiresIn = max(seconds(sharedSSO.ExpiresAt.Sub(now)), 0)
	}
	i.countMinted(set)

	i.logger.InfoContext(ctx, "tokens minted",
		"tenant_id", t.ID.String(),
		"client_id", client.ID.String(),
		"user_id", identity.UserID.String(),
		"scopes", set.Scope,
		"id_token", idToken != "",
		"sso_token", set.SSOToken != "",
	)
	return set, nil
}

// shareSSO records clientID on the SSO token the user signed in with. An SSO
// token revoked since the login is not shared and yields nil.
func (i *Issuer) shareSSO(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, token string) (*models.SSOTokenRecord, error) {
	if token == "" {
		return nil, nil
	}
	err := i.sso.AddSSOClient(ctx, tenantID, token, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		i.logger.WarnContext(ctx, "sso token no longer active at mint",
			"tenant_id", tenantID.String(),
			"client_id", clientID.String(),
		)
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to share sso token")
	}
	rec, err := i.sso.FindSSO(ctx, tenantID, token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sso token")
	}
	return rec, nil
}

// ClientCredentials issues an access token to the client itself. An empty
// scope grants everything the client is allowed; a non-empty one must be a
// subset of that.
func (i *Issuer) ClientCredentials(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, scope string) (_ *models.TokenSet, err error) {
	ctx, span := i.startSpan(ctx, "token.ClientCredentials", tenantID, clientID)
	defer func() { endSpan(span, err) }()
	defer i.metrics.ObserveMint(time.Now())

	t, client, err := i.resolve(ctx, tenantID, clientID, models.GrantClientCredentials)
	if err != nil {
		return nil, err
	}

	scopes := client.AllowedScopes
	if requested := models.ParseScope(scope); len(requested) > 0 {
		if !models.ScopesSubset(requested, client.AllowedScopes) {
			return nil, dErrors.New(dErrors.CodeInvalidScope, "requested scope exceeds the client's allowed scopes")
		}
		scopes = requested
	}

	now := requestcontext.Now(ctx)
	access := i.accessClaims(t, client.ID, client.ID.String(), scopes, nil, "", now)
	accessToken, _, err := i.sign(access, nil)
	if err != nil {
		return nil, err
	}
	i.metrics.IncTokenMinted("access")

	return &models.TokenSet{
		AccessToken: accessToken,
		TokenType:   models.TokenTypeBearer,
		ExpiresIn:   seconds(t.Tokens.AccessTokenTTL),
		Scope:       models.JoinScope(scopes),
	}, nil
}

func (i *Issuer) accessClaims(
	t *tenantModel.Tenant,
	clientID id.ClientID,
	subject string,
	scopes []string,
	amr []models.AuthMethod,
	refreshToken string,
	now time.Time,
) *jwttoken.Claims {
	claims := &jwttoken.Claims{
		TenantID: t.ID.String(),
		ClientID: clientID.String(),
		Scope:    models.JoinScope(scopes),
		AMR:      amrStrings(amr),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{clientID.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.Tokens.AccessTokenTTL)),
			ID:        i.jtiGen(),
		},
	}
	if refreshToken != "" {
		claims.RefreshTokenID = RefreshTokenID(refreshToken)
	}
	return claims
}

func (i *Issuer) idClaims(
	t *tenantModel.Tenant,
	clientID id.ClientID,
	identity models.Identity,
	scopes []string,
	nonce string,
	now time.Time,
) *jwttoken.Claims {
	claims := &jwttoken.Claims{
		TenantID: t.ID.String(),
		Scope:    models.JoinScope(scopes),
		AMR:      amrStrings(identity.AuthMethods),
		Nonce:    nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.Issuer,
			Subject:   identity.UserID.String(),
			Audience:  jwt.ClaimStrings{clientID.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.Tokens.IDTokenTTL)),
			ID:        i.jtiGen(),
		},
	}
	if !identity.AuthTime.IsZero() {
		claims.AuthTime = identity.AuthTime.Unix()
	}
	return claims
}

// sign signs the access token and, when idClaims is set, the ID token.
func (i *Issuer) sign(access, idClaims *jwttoken.Claims) (accessToken, idToken string, err error) {
	var g errgroup.Group
	g.Go(func() error {
		var err error
		accessToken, err = i.signer.Sign(access, typAccessToken)
		return err
	})
	if idClaims != nil {
		g.Go(func() error {
			var err error
			idToken, err = i.signer.Sign(idClaims, typIDToken)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign tokens")
	}
	return accessToken, idToken, nil
}

func (i *Issuer) countMinted(set *models.TokenSet) {
	i.metrics.IncTokenMinted("access")
	if set.RefreshToken != "" {
		i.metrics.IncTokenMinted("refresh")
	}
	if set.IDToken != "" {
		i.metrics.IncTokenMinted("id")
	}
	if set.SSOToken != "" {
		i.metrics.IncTokenMinted("sso")
	}
}

func amrStrings(methods []models.AuthMethod) []string {
	if len(methods) == 0 {
		return nil
	}
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}

// mfaFactors lists the factors used beyond the password when the login was
// multi-factor.
func mfaFactors(methods []models.AuthMethod) []string {
	if len(methods) < 2 {
		return nil
	}
	var out []string
	for _, m := range methods {
		if m != models.AuthMethodPassword {
			out = append(out, string(m))
		}
	}
	return out
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
