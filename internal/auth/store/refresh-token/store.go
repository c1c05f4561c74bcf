// Package refreshtoken persists refresh and SSO tokens. Rotation is the one
// place correctness depends on the store: deactivating the old token and
// inserting its successor is a single conditional step, so concurrent
// rotations of the same token have exactly one winner.
package refreshtoken

import (
	"fmt"
	"strings"
	"time"

	"guardian/internal/auth/models"
	"guardian/pkg/platform/sentinel"
)

func errTokenNotFound(kind string) error {
	return fmt.Errorf("%s not found: %w", kind, sentinel.ErrNotFound)
}

func errRotated() error {
	return fmt.Errorf("refresh token is no longer active: %w", sentinel.ErrAlreadyUsed)
}

func joinAMR(methods []models.AuthMethod) string {
	parts := make([]string, len(methods))
	for i, m := range methods {
		parts[i] = string(m)
	}
	return strings.Join(parts, " ")
}

func splitAMR(raw string) []models.AuthMethod {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	out := make([]models.AuthMethod, len(fields))
	for i, f := range fields {
		out[i] = models.AuthMethod(f)
	}
	return out
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
