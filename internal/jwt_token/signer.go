package jwttoken

import (
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Signer signs with one active key and publishes it alongside any retired
// keys that still have live tokens outstanding.
type Signer struct {
	active  *SigningKey
	retired []*SigningKey
}

// NewSigner returns a signer for active. Retired keys are only published.
func NewSigner(active *SigningKey, retired ...*SigningKey) *Signer {
	return &Signer{active: active, retired: retired}
}

// KeyID is the kid new tokens are signed under.
func (s *Signer) KeyID() string {
	return s.active.KeyID
}

// Algorithm is the alg new tokens are signed with.
func (s *Signer) Algorithm() string {
	return s.active.Algorithm
}

// Sign serialises claims as a compact JWS. typ sets the JOSE typ header
// when non-empty.
func (s *Signer) Sign(claims jwt.Claims, typ string) (string, error) {
	method := jwt.GetSigningMethod(s.active.Algorithm)
	if method == nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, s.active.Algorithm)
	}
	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = s.active.KeyID
	if typ != "" {
		token.Header["typ"] = typ
	}
	signed, err := token.SignedString(s.active.Key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// PublicJWKS renders every published key for the jwks endpoint.
func (s *Signer) PublicJWKS() jose.JSONWebKeySet {
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, 1+len(s.retired))}
	for _, k := range s.published() {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       k.Public(),
			KeyID:     k.KeyID,
			Algorithm: k.Algorithm,
			Use:       "sig",
		})
	}
	return set
}

// Keys exposes the published keys as a verification source, so the issuer
// can check its own tokens without a network round trip.
func (s *Signer) Keys() StaticKeys {
	keys := make(StaticKeys, 1+len(s.retired))
	for _, k := range s.published() {
		keys[k.KeyID] = k.Public()
	}
	return keys
}

func (s *Signer) published() []*SigningKey {
	return append([]*SigningKey{s.active}, s.retired...)
}

