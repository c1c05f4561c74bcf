package httptransport

import (
	"context"
	"net/http"
	"net/url"

	tenantModel "guardian/internal/tenant/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/requestcontext"
)

// clientSecretFromRequest extracts client_secret_basic or client_secret_post
// credentials. The two methods are mutually exclusive, and a form pair must
// be complete.
func clientSecretFromRequest(r *http.Request) (id.ClientID, string, error) {
	formID := r.PostForm.Get("client_id")
	formSecret := r.PostForm.Get("client_secret")

	if user, pass, ok := r.BasicAuth(); ok {
		if formID != "" || formSecret != "" {
			return "", "", dErrors.New(dErrors.CodeInvalidRequest, "client credentials were sent by more than one method")
		}
		// RFC 6749 §2.3.1 form-encodes both halves before base64.
		clientID, err := url.QueryUnescape(user)
		if err != nil {
			return "", "", dErrors.Wrap(err, dErrors.CodeInvalidRequest, "malformed client credentials")
		}
		secret, err := url.QueryUnescape(pass)
		if err != nil {
			return "", "", dErrors.Wrap(err, dErrors.CodeInvalidRequest, "malformed client credentials")
		}
		return id.ClientID(clientID), secret, nil
	}

	switch {
	case formID == "" && formSecret == "":
		return "", "", &clientAuthError{err: dErrors.New(dErrors.CodeUnauthorized, "client authentication is required")}
	case formID == "" || formSecret == "":
		return "", "", dErrors.New(dErrors.CodeInvalidRequest, "client_id and client_secret must be sent together")
	}
	return id.ClientID(formID), formSecret, nil
}

// authenticateClient resolves the confidential client calling a back-channel
// endpoint. The request form must already be parsed.
func (h *Handler) authenticateClient(ctx context.Context, r *http.Request) (*tenantModel.Client, error) {
	tenantID := requestcontext.TenantID(ctx)
	clientID, secret, err := clientSecretFromRequest(r)
	if err != nil {
		return nil, err
	}
	client, err := h.tenants.Authenticate(ctx, tenantID, clientID, secret)
	if err != nil {
		h.logger.WarnContext(ctx, "client authentication failed",
			"tenant_id", tenantID.String(),
			"client_id", clientID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, &clientAuthError{err: err}
	}
	return client, nil
}
