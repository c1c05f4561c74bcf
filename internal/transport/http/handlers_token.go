package httptransport

import (
	"net/http"
	"net/url"

	"guardian/internal/auth/coordinator"
	"guardian/internal/auth/models"
	tenantModel "guardian/internal/tenant/models"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

const defaultDeviceSource = "web"

// handleToken serves the authorization_code, refresh_token and
// client_credentials grants to an authenticated client.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid request body"))
		return
	}
	form := r.PostForm

	grantType := models.GrantType(form.Get("grant_type"))
	if grantType == "" {
		writeOAuthError(w, dErrors.New(dErrors.CodeInvalidRequest, "grant_type is required"))
		return
	}
	if !grantType.IsValid() {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error:       oauthUnsupportedGrantType,
			Description: "grant_type " + string(grantType) + " is not supported",
		})
		return
	}

	client, err := h.authenticateClient(ctx, r)
	if err != nil {
		writeOAuthError(w, err)
		return
	}
	if !client.CanUseGrant(grantType) {
		writeOAuthError(w, dErrors.New(dErrors.CodeUnauthorizedClient, "client may not use grant_type "+string(grantType)))
		return
	}

	t, err := h.tenants.Tenant(ctx, tenantID)
	if err != nil {
		writeOAuthError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "unknown tenant"))
		return
	}

	var set *models.TokenSet
	switch grantType {
	case models.GrantAuthorizationCode:
		set, err = h.exchangeCode(r, form, client)
	case models.GrantRefreshToken:
		set, err = h.refreshGrant(r, form, client)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			clearTokenCookies(w, t.Cookies)
		}
	case models.GrantClientCredentials:
		set, err = h.issuer.ClientCredentials(ctx, tenantID, client.ID, form.Get("scope"))
	}
	if err != nil {
		h.logFailure(ctx, "token request failed", err)
		writeOAuthError(w, err)
		return
	}

	if client.Type == tenantModel.ClientTypeFirstParty && grantType != models.GrantClientCredentials {
		setTokenCookies(w, t.Cookies, set)
	}
	w.Header().Set("Pragma", "no-cache")
	httputil.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) exchangeCode(r *http.Request, form url.Values, client *tenantModel.Client) (*models.TokenSet, error) {
	ctx := r.Context()
	grant, err := h.coordinator.ExchangeCode(ctx, requestcontext.TenantID(ctx), coordinator.ExchangeInput{
		Code:         form.Get("code"),
		ClientID:     client.ID,
		RedirectURI:  form.Get("redirect_uri"),
		CodeVerifier: form.Get("code_verifier"),
	})
	if err != nil {
		return nil, err
	}
	return h.issuer.Mint(ctx, grant, h.devices.Metadata(ctx, deviceSource(form)))
}

// refreshGrant rotates the refresh token from the form or, for browser
// clients, from the refresh_token cookie.
func (h *Handler) refreshGrant(r *http.Request, form url.Values, client *tenantModel.Client) (*models.TokenSet, error) {
	ctx := r.Context()
	token := form.Get("refresh_token")
	if token == "" {
		token = cookieValue(r, cookieRefreshToken)
	}
	return h.issuer.Rotate(ctx, requestcontext.TenantID(ctx), client.ID, token, form.Get("scope"))
}

func deviceSource(form url.Values) string {
	if s := form.Get("source"); s != "" {
		return s
	}
	return defaultDeviceSource
}

// handleRevoke implements RFC 7009 for refresh tokens. Unknown tokens and
// tokens of other clients are answered exactly like a successful revoke.
func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid request body"))
		return
	}
	client, err := h.authenticateClient(ctx, r)
	if err != nil {
		writeOAuthError(w, err)
		return
	}
	token := r.PostForm.Get("token")
	if token == "" {
		writeOAuthError(w, dErrors.New(dErrors.CodeInvalidRequest, "token is required"))
		return
	}

	err = h.issuer.Revoke(ctx, models.RevocationTarget{
		Kind:     models.RevokeToken,
		TenantID: tenantID,
		Token:    token,
		ClientID: client.ID,
	})
	if err != nil {
		h.logFailure(ctx, "revoke failed", err)
		writeOAuthError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	Universal    bool   `json:"universal"`
}

func (req *logoutRequest) fromForm(form url.Values) {
	req.RefreshToken = form.Get("refresh_token")
	req.Universal = form.Get("universal") == "true"
}

// handleLogout ends the browser session. The refresh token comes from the
// body or the cookie, never both. A universal logout revokes every token of
// the user through the revocation ledger.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	var req logoutRequest
	if err := decodeRequest(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	cookie := cookieValue(r, cookieRefreshToken)
	switch {
	case req.RefreshToken != "" && cookie != "":
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "refresh_token was sent in both the body and a cookie"))
		return
	case req.RefreshToken == "" && cookie == "":
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "refresh_token is required"))
		return
	case req.RefreshToken == "":
		req.RefreshToken = cookie
	}

	t, err := h.tenants.Tenant(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "unknown tenant"))
		return
	}
	clearTokenCookies(w, t.Cookies)

	target := models.RevocationTarget{Kind: models.RevokeToken, TenantID: tenantID, Token: req.RefreshToken}
	if req.Universal {
		userID, err := h.issuer.ValidateRefreshToken(ctx, tenantID, req.RefreshToken)
		if err != nil {
			h.logFailure(ctx, "logout with an invalid refresh token", err)
			httputil.WriteError(w, err)
			return
		}
		target = models.RevocationTarget{Kind: models.RevokeUser, TenantID: tenantID, UserID: userID}
	}
	if err := h.issuer.Revoke(ctx, target); err != nil {
		h.logFailure(ctx, "logout failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminLogoutRequest struct {
	Kind     string `json:"kind"`
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
}

func (req *adminLogoutRequest) fromForm(form url.Values) {
	req.Kind = form.Get("kind")
	req.UserID = form.Get("user_id")
	req.ClientID = form.Get("client_id")
}

// handleAdminLogout revokes every token of a user, of a client, or of the
// whole tenant.
func (h *Handler) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	var req adminLogoutRequest
	if err := decodeRequest(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	target := models.RevocationTarget{TenantID: tenantID}
	switch models.RevocationKind(req.Kind) {
	case models.RevokeUser:
		userID, err := id.ParseUserID(req.UserID)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "user_id is invalid"))
			return
		}
		target.Kind, target.UserID = models.RevokeUser, userID
	case models.RevokeClient:
		clientID, err := id.ParseClientID(req.ClientID)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "client_id is invalid"))
			return
		}
		target.Kind, target.ClientID = models.RevokeClient, clientID
	case models.RevokeTenant:
		target.Kind = models.RevokeTenant
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "kind must be user, client or tenant"))
		return
	}

	if err := h.issuer.Revoke(ctx, target); err != nil {
		h.logFailure(ctx, "admin logout failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
