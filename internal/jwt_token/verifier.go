package jwttoken

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySource resolves a kid to a verification key. Implementations return
// ErrUnknownKeyID when the kid is not in the set.
type KeySource interface {
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// StaticKeys is a fixed kid → key map.
type StaticKeys map[string]crypto.PublicKey

func (s StaticKeys) Key(_ context.Context, kid string) (crypto.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrUnknownKeyID
	}
	return key, nil
}

// Verifier checks signature, expiry, issuer, and audience. It never
// retries: a key-set fetch failure is reported as-is.
type Verifier struct {
	source KeySource
	issuer string
	leeway time.Duration
	clock  func() time.Time
}

type VerifierOption func(*Verifier)

// WithLeeway tolerates clock drift on exp/nbf/iat.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

// WithVerifierClock overrides time.Now.
func WithVerifierClock(clock func() time.Time) VerifierOption {
	return func(v *Verifier) { v.clock = clock }
}

// NewVerifier verifies tokens issued by issuer with keys from source.
func NewVerifier(source KeySource, issuer string, opts ...VerifierOption) *Verifier {
	v := &Verifier{source: source, issuer: issuer, clock: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses raw and returns its claims when the signature, expiry,
// issuer, and (when audience is non-empty) audience all check out.
func (v *Verifier) Verify(ctx context.Context, raw string, audience string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithTimeFunc(v.clock),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return v.keyFor(ctx, token)
	})
	if err != nil {
		return nil, classify(err)
	}

	if claims.Issuer != v.issuer {
		return nil, verificationError(ErrInvalidIssuer,
			fmt.Errorf("got %q, want %q", claims.Issuer, v.issuer), "token issuer mismatch")
	}
	if audience != "" && !slices.Contains(claims.Audience, audience) {
		return nil, verificationError(ErrInvalidAudience,
			fmt.Errorf("%q not in %v", audience, []string(claims.Audience)), "token audience mismatch")
	}
	return claims, nil
}

func (v *Verifier) keyFor(ctx context.Context, token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, ErrUnknownKeyID
	}
	key, err := v.source.Key(ctx, kid)
	if err != nil {
		return nil, err
	}

	switch key.(type) {
	case *rsa.PublicKey:
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("%w: %s with RSA key", ErrUnsupportedAlgorithm, token.Method.Alg())
		}
	case *ecdsa.PublicKey:
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("%w: %s with EC key", ErrUnsupportedAlgorithm, token.Method.Alg())
		}
	default:
		return nil, fmt.Errorf("%w: %w: %T", ErrUnsupportedAlgorithm, ErrUnsupportedKeyType, key)
	}
	return key, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrKeySetUnavailable):
		return verificationError(ErrKeySetUnavailable, err, "verification keys unavailable")
	case errors.Is(err, ErrUnknownKeyID):
		return verificationError(ErrInvalidSignature, err, "unknown signing key")
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return verificationError(ErrUnsupportedAlgorithm, err, "unsupported signing algorithm")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return verificationError(ErrMalformedToken, err, "malformed token")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return verificationError(ErrInvalidSignature, err, "invalid token signature")
	case errors.Is(err, jwt.ErrTokenExpired):
		return verificationError(ErrTokenExpired, err, "token has expired")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		// Unknown alg header values land here before the keyfunc runs.
		return verificationError(ErrUnsupportedAlgorithm, err, "unsupported signing algorithm")
	default:
		return verificationError(ErrInvalidSignature, err, "invalid token")
	}
}
