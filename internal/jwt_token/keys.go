package jwttoken

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v4"
)

// SigningKey is a private key with the kid and alg it signs under.
type SigningKey struct {
	KeyID     string
	Algorithm string
	Key       crypto.Signer
}

// Public returns the verification half of the key.
func (k *SigningKey) Public() crypto.PublicKey {
	return k.Key.Public()
}

// NewSigningKey wraps key, deriving kid from its RFC 7638 thumbprint. An
// empty alg is derived from the key type.
func NewSigningKey(key crypto.Signer, alg string) (*SigningKey, error) {
	if key == nil {
		return nil, errors.New("signing key is required")
	}
	if alg == "" {
		derived, err := DeriveAlgorithm(key.Public())
		if err != nil {
			return nil, err
		}
		alg = derived
	}
	if err := ValidateAlgorithmForKey(alg, key.Public()); err != nil {
		return nil, err
	}
	kid, err := DeriveKeyID(key.Public())
	if err != nil {
		return nil, err
	}
	return &SigningKey{KeyID: kid, Algorithm: alg, Key: key}, nil
}

// GenerateSigningKey creates an ephemeral key for alg. Used when no key file
// is configured; tokens will not survive a restart.
func GenerateSigningKey(alg string) (*SigningKey, error) {
	var (
		key crypto.Signer
		err error
	)
	switch alg {
	case "RS256", "RS384", "RS512", "":
		key, err = rsa.GenerateKey(rand.Reader, 2048)
	case "ES256":
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case "ES384":
		key, err = ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case "ES512":
		key, err = ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", alg, err)
	}
	return NewSigningKey(key, alg)
}

// LoadSigningKey reads a PEM private key from path.
func LoadSigningKey(path, alg string) (*SigningKey, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	key, err := ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	return NewSigningKey(key, alg)
}

// ParsePrivateKeyPEM accepts PKCS1 RSA, SEC1 EC, and PKCS8 RSA/EC keys.
func ParsePrivateKeyPEM(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block in signing key")
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	switch k := parsed.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, parsed)
	}
}

// DeriveKeyID is base64url(SHA-256(canonical JWK)).
func DeriveKeyID(pub crypto.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{Key: pub}
	thumb, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("compute key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(thumb), nil
}

// DeriveAlgorithm picks the default JWS alg for a public key.
func DeriveAlgorithm(pub crypto.PublicKey) (string, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return "RS256", nil
	case *ecdsa.PublicKey:
		return curveAlgorithm(k.Curve)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedKeyType, pub)
	}
}

// ValidateAlgorithmForKey rejects alg values the key cannot produce.
func ValidateAlgorithmForKey(alg string, pub crypto.PublicKey) error {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		switch alg {
		case "RS256", "RS384", "RS512":
			return nil
		}
	case *ecdsa.PublicKey:
		want, err := curveAlgorithm(k.Curve)
		if err != nil {
			return err
		}
		if alg == want {
			return nil
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedKeyType, pub)
	}
	return fmt.Errorf("%w: %s for %T", ErrUnsupportedAlgorithm, alg, pub)
}

func curveAlgorithm(curve elliptic.Curve) (string, error) {
	switch curve {
	case elliptic.P256():
		return "ES256", nil
	case elliptic.P384():
		return "ES384", nil
	case elliptic.P521():
		return "ES512", nil
	default:
		return "", fmt.Errorf("%w: curve %s", ErrUnsupportedKeyType, curve.Params().Name)
	}
}
