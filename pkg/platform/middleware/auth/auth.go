// Package auth authenticates bearer access tokens.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

// Principal is what a verified access token says about its bearer. UserID is
// empty for client_credentials tokens.
type Principal struct {
	TenantID id.TenantID
	ClientID id.ClientID
	UserID   id.UserID
	Subject  string
	Scope    string
	AMR      []string
	IssuedAt time.Time
}

// TokenVerifier checks the signature, issuer and expiry of an access token.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, raw string) (*Principal, error)
}

// RevocationChecker reports whether a verified token was revoked since it
// was issued.
type RevocationChecker interface {
	IsPrincipalRevoked(ctx context.Context, p *Principal) (bool, error)
}

type contextKeyPrincipal struct{}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKeyPrincipal{}).(*Principal)
	return p
}

// WithPrincipal injects a principal into a context.
// Useful for handler tests that don't run the middleware.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, p)
}

// RequireAuth admits requests carrying a valid, unrevoked bearer token.
// revocationChecker may be nil.
func RequireAuth(validator TokenVerifier, revocationChecker RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.VerifyAccessToken(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if revocationChecker != nil {
				revoked, err := revocationChecker.IsPrincipalRevoked(ctx, principal)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"request_id", requestID,
						"client_id", principal.ClientID.String(),
					)
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// writeUnauthorized answers with RFC 6750 invalid_token.
func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
		Error:       "invalid_token",
		Description: desc,
	})
}
