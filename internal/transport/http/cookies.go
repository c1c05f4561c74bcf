package httptransport

import (
	"net/http"

	"guardian/internal/auth/models"
	tenantModel "guardian/internal/tenant/models"
)

const (
	cookieAccessToken  = "access_token"
	cookieRefreshToken = "refresh_token"
	cookieSSOToken     = "sso_token"
)

func newCookie(cfg tenantModel.CookieConfig, name, value string, maxAge int) *http.Cookie {
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	}
}

// setTokenCookies stores the browser-held tokens of a first-party client.
func setTokenCookies(w http.ResponseWriter, cfg tenantModel.CookieConfig, set *models.TokenSet) {
	http.SetCookie(w, newCookie(cfg, cookieAccessToken, set.AccessToken, int(set.ExpiresIn)))
	if set.RefreshToken != "" {
		http.SetCookie(w, newCookie(cfg, cookieRefreshToken, set.RefreshToken, int(set.RefreshExpiresIn)))
	}
	if set.SSOToken != "" {
		http.SetCookie(w, newCookie(cfg, cookieSSOToken, set.SSOToken, int(set.SSOExpiresIn)))
	}
}

// clearTokenCookies expires every token cookie.
func clearTokenCookies(w http.ResponseWriter, cfg tenantModel.CookieConfig) {
	for _, name := range []string{cookieAccessToken, cookieRefreshToken, cookieSSOToken} {
		http.SetCookie(w, newCookie(cfg, name, "", -1))
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
