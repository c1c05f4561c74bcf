package jwttoken

import (
	"errors"
	"fmt"

	dErrors "guardian/pkg/domain-errors"
)

// Verification failures. Callers distinguish them with errors.Is; every
// error returned by Verifier.Verify also carries CodeTokenVerification.
var (
	ErrMalformedToken       = errors.New("malformed token")
	ErrInvalidSignature     = errors.New("invalid token signature")
	ErrUnknownKeyID         = errors.New("unknown key id")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	ErrUnsupportedKeyType   = errors.New("unsupported key type")
	ErrInvalidIssuer        = errors.New("invalid token issuer")
	ErrInvalidAudience      = errors.New("invalid token audience")
	ErrTokenExpired         = errors.New("token has expired")
	ErrKeySetUnavailable    = errors.New("key set unavailable")
)

func verificationError(kind error, cause error, msg string) error {
	err := kind
	switch {
	case cause == nil:
	case errors.Is(cause, kind):
		err = cause
	default:
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return dErrors.Wrap(err, dErrors.CodeTokenVerification, msg)
}
