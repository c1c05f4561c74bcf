// Package pkce checks RFC 7636 proof keys on the code exchange.
package pkce

import (
	"crypto/subtle"
	"errors"
	"regexp"

	"golang.org/x/oauth2"

	"guardian/internal/auth/models"
)

var (
	// ErrMissingVerifier means the code was bound to a challenge but no
	// verifier was presented.
	ErrMissingVerifier = errors.New("code_verifier is required")
	// ErrUnexpectedVerifier means a verifier was presented for a code that
	// carries no challenge.
	ErrUnexpectedVerifier = errors.New("code_verifier was not expected")
	ErrMalformedVerifier  = errors.New("code_verifier is malformed")
	ErrMismatch           = errors.New("code_verifier does not match code_challenge")
	ErrUnsupportedMethod  = errors.New("unsupported code_challenge_method")
)

// RFC 7636 §4.1: 43..128 characters from the unreserved set.
var verifierPattern = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)

// ValidChallenge reports whether challenge/method are acceptable on an
// authorize request. They must be both present or both absent.
func ValidChallenge(challenge string, method models.CodeChallengeMethod) bool {
	if challenge == "" || method == "" {
		return challenge == "" && method == ""
	}
	if !method.IsValid() {
		return false
	}
	return verifierPattern.MatchString(challenge)
}

// Verify checks verifier against the challenge stored with the code.
func Verify(challenge string, method models.CodeChallengeMethod, verifier string) error {
	if challenge == "" {
		if verifier != "" {
			return ErrUnexpectedVerifier
		}
		return nil
	}
	if verifier == "" {
		return ErrMissingVerifier
	}
	if !verifierPattern.MatchString(verifier) {
		return ErrMalformedVerifier
	}

	var computed string
	switch method {
	case models.CodeChallengeS256:
		computed = oauth2.S256ChallengeFromVerifier(verifier)
	case models.CodeChallengePlain, "":
		computed = verifier
	default:
		return ErrUnsupportedMethod
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) != 1 {
		return ErrMismatch
	}
	return nil
}
