package httptransport

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"guardian/internal/auth/coordinator"
	"guardian/internal/auth/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/platform/middleware/admin"
	"guardian/pkg/requestcontext"
)

// maxBodyBytes bounds the login and consent request bodies.
const maxBodyBytes = 64 << 10

// formRequest is a body the UI may send as JSON or as a urlencoded form.
type formRequest interface {
	fromForm(form url.Values)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v formRequest) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid request body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid request body")
	}
	v.fromForm(r.PostForm)
	return nil
}

type loginRequest struct {
	LoginChallenge string   `json:"login_challenge"`
	SSOToken       string   `json:"sso_token"`
	RefreshToken   string   `json:"refresh_token"`
	UserID         string   `json:"user_id"`
	AuthMethods    []string `json:"auth_methods"`
	IsNewUser      bool     `json:"is_new_user"`
}

func (req *loginRequest) fromForm(form url.Values) {
	req.LoginChallenge = form.Get("login_challenge")
	req.SSOToken = form.Get("sso_token")
	req.RefreshToken = form.Get("refresh_token")
	req.UserID = form.Get("user_id")
	req.AuthMethods = strings.Fields(form.Get("auth_methods"))
	req.IsNewUser = form.Get("is_new_user") == "true"
}

type consentRequest struct {
	ConsentChallenge string   `json:"consent_challenge"`
	SSOToken         string   `json:"sso_token"`
	RefreshToken     string   `json:"refresh_token"`
	UserID           string   `json:"user_id"`
	ConsentedScopes  []string `json:"consented_scopes"`
}

func (req *consentRequest) fromForm(form url.Values) {
	req.ConsentChallenge = form.Get("consent_challenge")
	req.SSOToken = form.Get("sso_token")
	req.RefreshToken = form.Get("refresh_token")
	req.UserID = form.Get("user_id")
	req.ConsentedScopes = models.ParseScope(form.Get("consented_scopes"))
}

// handleAuthorize starts an authorization code flow. Every outcome past
// redirect_uri validation is a 302; earlier failures are a JSON 400 since
// there is nowhere safe to send the browser.
func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)
	q := r.URL.Query()

	redirect, err := h.coordinator.Initiate(ctx, tenantID, coordinator.AuthorizeInput{
		ClientID:            q.Get("client_id"),
		ResponseType:        q.Get("response_type"),
		Scope:               q.Get("scope"),
		RedirectURI:         q.Get("redirect_uri"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Prompt:              q.Get("prompt"),
		LoginHint:           q.Get("login_hint"),
	})
	if err != nil {
		if re, ok := asRedirectError(err); ok {
			h.logger.InfoContext(ctx, "authorize rejected",
				"tenant_id", tenantID.String(),
				"client_id", q.Get("client_id"),
				"error", string(re.Code),
				"request_id", requestcontext.RequestID(ctx),
			)
			http.Redirect(w, r, re.Location(), http.StatusFound)
			return
		}
		h.logFailure(ctx, "authorize request invalid", err)
		writeOAuthError(w, err)
		return
	}
	http.Redirect(w, r, redirect.Location, http.StatusFound)
}

func (h *Handler) handleAcceptLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	var req loginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.SSOToken, req.RefreshToken = sessionTokens(r, req.SSOToken, req.RefreshToken)

	identity, err := h.credentials.Verify(ctx, tenantID, LoginAssertion{
		SSOToken:     req.SSOToken,
		RefreshToken: req.RefreshToken,
		UserID:       req.UserID,
		AuthMethods:  req.AuthMethods,
		IsNewUser:    req.IsNewUser,
		AdminToken:   r.Header.Get(admin.HeaderAdminToken),
	})
	if err != nil {
		h.logFailure(ctx, "login could not be verified", err)
		httputil.WriteError(w, err)
		return
	}

	redirect, err := h.coordinator.AcceptLogin(ctx, tenantID, req.LoginChallenge, identity)
	h.writeRedirect(w, r, redirect, err)
}

func (h *Handler) handleAcceptConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	req, userID, ok := h.consentingUser(w, r)
	if !ok {
		return
	}
	redirect, err := h.coordinator.AcceptConsent(ctx, tenantID, req.ConsentChallenge, userID, req.ConsentedScopes)
	h.writeRedirect(w, r, redirect, err)
}

func (h *Handler) handleRejectConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	req, userID, ok := h.consentingUser(w, r)
	if !ok {
		return
	}
	redirect, err := h.coordinator.RejectConsent(ctx, tenantID, req.ConsentChallenge, userID)
	h.writeRedirect(w, r, redirect, err)
}

// consentingUser decodes a consent request and verifies who is answering it.
// It writes the error response itself and reports false on failure.
func (h *Handler) consentingUser(w http.ResponseWriter, r *http.Request) (*consentRequest, id.UserID, bool) {
	ctx := r.Context()

	var req consentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return nil, "", false
	}
	req.SSOToken, req.RefreshToken = sessionTokens(r, req.SSOToken, req.RefreshToken)

	identity, err := h.credentials.Verify(ctx, requestcontext.TenantID(ctx), LoginAssertion{
		SSOToken:     req.SSOToken,
		RefreshToken: req.RefreshToken,
		UserID:       req.UserID,
		AdminToken:   r.Header.Get(admin.HeaderAdminToken),
	})
	if err != nil {
		h.logFailure(ctx, "consent could not be verified", err)
		httputil.WriteError(w, err)
		return nil, "", false
	}
	return &req, identity.UserID, true
}

// sessionTokens falls back to the token cookies when the body carries no
// session token.
func sessionTokens(r *http.Request, sso, refresh string) (string, string) {
	if sso != "" || refresh != "" {
		return sso, refresh
	}
	return cookieValue(r, cookieSSOToken), cookieValue(r, cookieRefreshToken)
}

// writeRedirect answers the login and consent UI with where to send the
// browser next. Redirect errors are a destination too.
func (h *Handler) writeRedirect(w http.ResponseWriter, r *http.Request, redirect *models.Redirect, err error) {
	if err != nil {
		if re, ok := asRedirectError(err); ok {
			httputil.WriteJSON(w, http.StatusOK, redirectResponse{RedirectURI: re.Location()})
			return
		}
		h.logFailure(r.Context(), "authorization step failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, redirectResponse{RedirectURI: redirect.Location})
}
