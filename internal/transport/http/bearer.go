package httptransport

import (
	"context"
	"time"

	"guardian/internal/auth/models"
	jwttoken "guardian/internal/jwt_token"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/middleware/auth"
	"guardian/pkg/requestcontext"
)

// VerifyAccessToken checks a bearer token against the issuer of the tenant in
// ctx. Client-credentials tokens carry no refresh token id and yield a
// principal without a user.
func (h *Handler) VerifyAccessToken(ctx context.Context, raw string) (*auth.Principal, error) {
	tenantID := requestcontext.TenantID(ctx)
	t, err := h.tenants.Tenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTokenVerification, "unknown tenant")
	}

	verifier := jwttoken.NewVerifier(h.keySource, t.Issuer,
		jwttoken.WithLeeway(h.leeway),
		jwttoken.WithVerifierClock(func() time.Time { return requestcontext.Now(ctx) }),
	)
	claims, err := verifier.Verify(ctx, raw, "")
	if err != nil {
		return nil, err
	}
	if claims.TenantID != tenantID.String() {
		return nil, dErrors.New(dErrors.CodeTokenVerification, "token was issued for another tenant")
	}

	p := &auth.Principal{
		TenantID: tenantID,
		ClientID: id.ClientID(claims.ClientID),
		Subject:  claims.Subject,
		Scope:    claims.Scope,
		AMR:      claims.AMR,
	}
	if claims.RefreshTokenID != "" {
		p.UserID = id.UserID(claims.Subject)
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}

// IsPrincipalRevoked consults the revocation ledger for a verified token.
func (h *Handler) IsPrincipalRevoked(ctx context.Context, p *auth.Principal) (bool, error) {
	return h.issuer.IsRevoked(ctx, models.TokenMeta{
		TenantID: p.TenantID,
		ClientID: p.ClientID,
		UserID:   p.UserID,
		IssuedAt: p.IssuedAt,
	})
}
