// Package session persists the short-lived state of an authorization
// attempt: the authorize session awaiting login, the consent session awaiting
// the user, and the issued authorization code. Every record is taken at most
// once.
package session

import (
	"errors"
	"fmt"
	"time"

	"guardian/pkg/platform/sentinel"
)

type kind string

const (
	kindAuthorize kind = "authorize"
	kindConsent   kind = "consent"
	kindCode      kind = "code"
)

var errEmptyID = errors.New("record id is empty")

func ttlUntil(expiresAt, now time.Time) (time.Duration, error) {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return 0, fmt.Errorf("record already expired: %w", sentinel.ErrExpired)
	}
	return ttl, nil
}

func notFound(k kind) error {
	return fmt.Errorf("%s not found: %w", k, sentinel.ErrNotFound)
}
