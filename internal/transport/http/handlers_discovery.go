package httptransport

import (
	"net/http"
	"strings"

	"guardian/internal/auth/models"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/platform/middleware/auth"
	"guardian/pkg/requestcontext"
)

const jwksCacheControl = "public, max-age=300"

func (h *Handler) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", jwksCacheControl)
	httputil.WriteJSON(w, http.StatusOK, h.keys.PublicJWKS())
}

type discoveryDocument struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	UserInfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
}

// handleDiscovery serves the OpenID Provider metadata. Endpoint URLs are
// built from the request so the document is right behind any proxy that sets
// X-Forwarded-Proto.
func (h *Handler) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)
	t, err := h.tenants.Tenant(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown tenant"))
		return
	}

	base := baseURL(r) + "/" + tenantID.String()
	w.Header().Set("Cache-Control", jwksCacheControl)
	httputil.WriteJSON(w, http.StatusOK, discoveryDocument{
		Issuer:                 t.Issuer,
		AuthorizationEndpoint:  base + "/authorize",
		TokenEndpoint:          base + "/token",
		RevocationEndpoint:     base + "/revoke",
		UserInfoEndpoint:       base + "/userinfo",
		JWKSURI:                base + "/.well-known/jwks.json",
		ResponseTypesSupported: []string{"code"},
		GrantTypesSupported: []string{
			string(models.GrantAuthorizationCode),
			string(models.GrantRefreshToken),
			string(models.GrantClientCredentials),
		},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{h.keys.Algorithm()},
		ScopesSupported:                   []string{models.ScopeOpenID},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		CodeChallengeMethodsSupported: []string{
			string(models.CodeChallengeS256),
			string(models.CodeChallengePlain),
		},
		ClaimsSupported: []string{"sub", "iss", "aud", "exp", "iat", "auth_time", "nonce", "amr", "tenant_id"},
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	return scheme + "://" + r.Host
}

type userInfoResponse struct {
	Subject  string   `json:"sub"`
	TenantID string   `json:"tenant_id"`
	ClientID string   `json:"client_id"`
	Scope    string   `json:"scope,omitempty"`
	AMR      []string `json:"amr,omitempty"`
}

// handleUserInfo describes the bearer of a user access token.
func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if p == nil || p.UserID.IsNil() {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error:       oauthInvalidToken,
			Description: "token does not identify a user",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, userInfoResponse{
		Subject:  p.Subject,
		TenantID: p.TenantID.String(),
		ClientID: p.ClientID.String(),
		Scope:    p.Scope,
		AMR:      p.AMR,
	})
}
