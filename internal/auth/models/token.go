package models

import (
	"time"

	id "guardian/pkg/domain"
)

// GrantType is an OAuth 2.0 token endpoint grant.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantClientCredentials GrantType = "client_credentials"
)

// IsValid reports whether g is a supported grant type.
func (g GrantType) IsValid() bool {
	switch g {
	case GrantAuthorizationCode, GrantRefreshToken, GrantClientCredentials:
		return true
	}
	return false
}

// TokenTypeBearer is the only token_type issued.
const TokenTypeBearer = "Bearer"

// DeviceMetadata describes where a refresh token was issued.
type DeviceMetadata struct {
	DeviceName string
	IP         string
	Location   string
	Source     string
	UserAgent  string
}

// RefreshTokenRecord is the persisted rotation anchor. A rotation chain has at
// most one record with Active == true.
type RefreshTokenRecord struct {
	Token       string
	TenantID    id.TenantID
	ClientID    id.ClientID
	UserID      id.UserID
	Scopes      []string
	AuthMethods []AuthMethod
	Device      DeviceMetadata
	Active      bool
	RotatedFrom string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// IsExpired reports whether the record is past its expiry at now.
func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// BelongsTo reports whether the record was issued to clientID within tenantID.
func (r *RefreshTokenRecord) BelongsTo(tenantID id.TenantID, clientID id.ClientID) bool {
	return r.TenantID == tenantID && r.ClientID == clientID
}

// SSOTokenRecord lets first-party clients re-authenticate the same user
// silently. It is bound to the refresh token it was minted with.
type SSOTokenRecord struct {
	Token            string
	TenantID         id.TenantID
	UserID           id.UserID
	ClientIDIssuedTo id.ClientID
	RefreshToken     string
	AuthMethods      []AuthMethod
	ClientIDsUsedBy  []id.ClientID
	Active           bool
	IssuedAt         time.Time
	ExpiresAt        time.Time
}

func (r *SSOTokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// TokenSet is the token endpoint response body.
type TokenSet struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	IDToken      string   `json:"id_token,omitempty"`
	SSOToken     string   `json:"sso_token,omitempty"`
	Scope        string   `json:"scope,omitempty"`
	IsNewUser    bool     `json:"is_new_user"`
	MFAFactors   []string `json:"mfa_factors,omitempty"`

	// Not rendered; used by the transport to set cookies.
	SSOExpiresIn     int64 `json:"-"`
	RefreshExpiresIn int64 `json:"-"`
}

// RevocationKind selects what a revocation covers.
type RevocationKind string

const (
	RevokeToken  RevocationKind = "token"
	RevokeUser   RevocationKind = "user"
	RevokeClient RevocationKind = "client"
	RevokeTenant RevocationKind = "tenant"
)

// RevocationTarget names what to revoke. Token is set for RevokeToken,
// UserID for RevokeUser, ClientID for RevokeClient. For RevokeToken a
// non-empty ClientID restricts the revoke to tokens owned by that client.
type RevocationTarget struct {
	Kind     RevocationKind
	TenantID id.TenantID
	Token    string
	UserID   id.UserID
	ClientID id.ClientID
}

// TokenMeta is what a revocation check knows about a presented token.
type TokenMeta struct {
	TenantID     id.TenantID
	ClientID     id.ClientID
	UserID       id.UserID
	RefreshToken string
	IssuedAt     time.Time
}
