package httptransport

import (
	"context"
	"errors"
	"net/http"

	"guardian/internal/auth/models"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

// RFC 6749 §5.2 and RFC 6750 error codes.
const (
	oauthInvalidRequest       = "invalid_request"
	oauthInvalidClient        = "invalid_client"
	oauthInvalidGrant         = "invalid_grant"
	oauthUnauthorizedClient   = "unauthorized_client"
	oauthUnsupportedGrantType = "unsupported_grant_type"
	oauthInvalidScope         = "invalid_scope"
	oauthInvalidToken         = "invalid_token"
	oauthServerError          = "server_error"
)

// clientAuthError marks a failure to authenticate the calling client so it
// renders as invalid_client instead of the code it carries.
type clientAuthError struct {
	err error
}

func (e *clientAuthError) Error() string { return e.err.Error() }
func (e *clientAuthError) Unwrap() error { return e.err }

// oauthStatus maps a domain error onto the OAuth error code and status.
func oauthStatus(err error) (int, string) {
	code, ok := dErrors.GetCode(err)
	if !ok {
		return http.StatusInternalServerError, oauthServerError
	}

	var cae *clientAuthError
	if errors.As(err, &cae) && code != dErrors.CodeInvalidRequest && code != dErrors.CodeInternal {
		return http.StatusUnauthorized, oauthInvalidClient
	}

	switch code {
	case dErrors.CodeInvalidRequest, dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest, oauthInvalidRequest
	case dErrors.CodeInvalidCode, dErrors.CodeInvalidState, dErrors.CodeUnauthorized:
		return http.StatusBadRequest, oauthInvalidGrant
	case dErrors.CodeInvalidScope:
		return http.StatusBadRequest, oauthInvalidScope
	case dErrors.CodeUnauthorizedClient:
		return http.StatusBadRequest, oauthUnauthorizedClient
	case dErrors.CodeTokenVerification:
		return http.StatusUnauthorized, oauthInvalidToken
	default:
		return http.StatusInternalServerError, oauthServerError
	}
}

// writeOAuthError renders err as an RFC 6749 error body. Internal failures
// are logged by the caller and rendered without a description.
func writeOAuthError(w http.ResponseWriter, err error) {
	status, code := oauthStatus(err)
	resp := httputil.ErrorResponse{Error: code}
	if code != oauthServerError {
		resp.Description = dErrors.Message(err)
	}
	if code == oauthInvalidClient {
		w.Header().Set("WWW-Authenticate", `Basic realm="guardian"`)
	}
	w.Header().Set("Pragma", "no-cache")
	httputil.WriteJSON(w, status, resp)
}

// asRedirectError finds an OAuth error that must go back to the client's
// redirect_uri.
func asRedirectError(err error) (*models.RedirectError, bool) {
	var re *models.RedirectError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// logFailure logs err at error level when it is internal and at warn level
// otherwise.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	code, _ := dErrors.GetCode(err)
	args := []any{
		"tenant_id", requestcontext.TenantID(ctx).String(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if code == "" || code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.WarnContext(ctx, msg, args...)
}
