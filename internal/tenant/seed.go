package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	authModel "guardian/internal/auth/models"
	"guardian/internal/tenant/models"
	"guardian/internal/tenant/secrets"
	id "guardian/pkg/domain"
)

// Seed is the on-disk tenant catalogue.
type Seed struct {
	Tenants []TenantSeed `json:"tenants"`
}

type TenantSeed struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Status         string       `json:"status"`
	Issuer         string       `json:"issuer"`
	LoginPageURI   string       `json:"login_page_uri"`
	ConsentPageURI string       `json:"consent_page_uri"`
	Tokens         TokenSeed    `json:"tokens"`
	Cookies        CookieSeed   `json:"cookies"`
	Clients        []ClientSeed `json:"clients"`
}

type TokenSeed struct {
	AccessTokenTTL      Duration `json:"access_token_ttl"`
	RefreshTokenTTL     Duration `json:"refresh_token_ttl"`
	IDTokenTTL          Duration `json:"id_token_ttl"`
	SSOTokenTTL         Duration `json:"sso_token_ttl"`
	AuthorizeSessionTTL Duration `json:"authorize_session_ttl"`
	ConsentSessionTTL   Duration `json:"consent_session_ttl"`
	CodeTTL             Duration `json:"code_ttl"`
}

type CookieSeed struct {
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	SameSite string `json:"same_site"`
	Secure   *bool  `json:"secure"`
	HTTPOnly *bool  `json:"http_only"`
}

// ClientSeed accepts either a plaintext secret, hashed on load, or a
// precomputed bcrypt hash.
type ClientSeed struct {
	ClientID         string   `json:"client_id"`
	Name             string   `json:"name"`
	ClientSecret     string   `json:"client_secret"`
	ClientSecretHash string   `json:"client_secret_hash"`
	RedirectURIs     []string `json:"redirect_uris"`
	GrantTypes       []string `json:"grant_types"`
	ResponseTypes    []string `json:"response_types"`
	AllowedScopes    []string `json:"allowed_scopes"`
	ClientType       string   `json:"client_type"`
	SkipConsent      bool     `json:"skip_consent"`
	Status           string   `json:"status"`
}

// Duration reads Go duration strings ("15m") or integer seconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs int64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or seconds: %w", err)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// LoadSeedFile reads a seed file and registers its contents.
func LoadSeedFile(r *Registry, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read tenant seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("decode tenant seed: %w", err)
	}
	return Apply(r, seed)
}

// Apply registers every tenant and client in seed, returning the number of
// tenants loaded.
func Apply(r *Registry, seed Seed) (int, error) {
	for _, ts := range seed.Tenants {
		t, err := ts.toModel()
		if err != nil {
			return 0, err
		}
		if err := r.PutTenant(t); err != nil {
			return 0, fmt.Errorf("tenant %s: %w", ts.ID, err)
		}
		for _, cs := range ts.Clients {
			c, err := cs.toModel(t.ID)
			if err != nil {
				return 0, fmt.Errorf("client %s: %w", cs.ClientID, err)
			}
			if err := r.PutClient(c); err != nil {
				return 0, fmt.Errorf("client %s: %w", cs.ClientID, err)
			}
		}
	}
	return len(seed.Tenants), nil
}

func (ts TenantSeed) toModel() (*models.Tenant, error) {
	tenantID, err := id.ParseTenantID(ts.ID)
	if err != nil {
		return nil, err
	}
	status := models.TenantStatus(ts.Status)
	if status == "" {
		status = models.TenantStatusActive
	}
	cookies := models.CookieConfig{
		Domain:   ts.Cookies.Domain,
		Path:     ts.Cookies.Path,
		SameSite: models.ParseSameSite(ts.Cookies.SameSite),
		Secure:   true,
		HTTPOnly: true,
	}
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	if ts.Cookies.Secure != nil {
		cookies.Secure = *ts.Cookies.Secure
	}
	if ts.Cookies.HTTPOnly != nil {
		cookies.HTTPOnly = *ts.Cookies.HTTPOnly
	}
	return &models.Tenant{
		ID:             tenantID,
		Name:           ts.Name,
		Status:         status,
		Issuer:         ts.Issuer,
		LoginPageURI:   ts.LoginPageURI,
		ConsentPageURI: ts.ConsentPageURI,
		Tokens: models.TokenConfig{
			AccessTokenTTL:      time.Duration(ts.Tokens.AccessTokenTTL),
			RefreshTokenTTL:     time.Duration(ts.Tokens.RefreshTokenTTL),
			IDTokenTTL:          time.Duration(ts.Tokens.IDTokenTTL),
			SSOTokenTTL:         time.Duration(ts.Tokens.SSOTokenTTL),
			AuthorizeSessionTTL: time.Duration(ts.Tokens.AuthorizeSessionTTL),
			ConsentSessionTTL:   time.Duration(ts.Tokens.ConsentSessionTTL),
			CodeTTL:             time.Duration(ts.Tokens.CodeTTL),
		},
		Cookies: cookies,
	}, nil
}

func (cs ClientSeed) toModel(tenantID id.TenantID) (*models.Client, error) {
	clientID, err := id.ParseClientID(cs.ClientID)
	if err != nil {
		return nil, err
	}
	hash := cs.ClientSecretHash
	if hash == "" && cs.ClientSecret != "" {
		if hash, err = secrets.Hash(cs.ClientSecret); err != nil {
			return nil, err
		}
	}
	grants := make([]authModel.GrantType, 0, len(cs.GrantTypes))
	for _, g := range cs.GrantTypes {
		grants = append(grants, authModel.GrantType(g))
	}
	clientType := models.ClientType(cs.ClientType)
	if clientType == "" {
		clientType = models.ClientTypeThirdParty
	}
	status := models.ClientStatus(cs.Status)
	if status == "" {
		status = models.ClientStatusActive
	}
	return &models.Client{
		ID:            clientID,
		TenantID:      tenantID,
		Name:          cs.Name,
		SecretHash:    hash,
		RedirectURIs:  cs.RedirectURIs,
		GrantTypes:    grants,
		ResponseTypes: cs.ResponseTypes,
		AllowedScopes: cs.AllowedScopes,
		Type:          clientType,
		SkipConsent:   cs.SkipConsent,
		Status:        status,
	}, nil
}
