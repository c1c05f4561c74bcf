// Package jwttoken signs and verifies the JWTs guardian issues, and resolves
// verification keys from static sets or remote JWKS endpoints.
package jwttoken

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set shared by access and ID tokens. Fields that do not
// apply to a token kind are left empty and omitted.
type Claims struct {
	TenantID string   `json:"tenant_id,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	AMR      []string `json:"amr,omitempty"`
	// RefreshTokenID is a correlation id for the refresh token the access
	// token was minted with.
	RefreshTokenID string `json:"rft_id,omitempty"`
	Nonce          string `json:"nonce,omitempty"`
	AuthTime       int64  `json:"auth_time,omitempty"`
	jwt.RegisteredClaims
}
