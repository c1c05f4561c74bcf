// Package consent records which scopes a user has granted each client, so a
// returning user is only asked about scopes they have not yet approved.
package consent

import (
	"context"
	"slices"

	id "guardian/pkg/domain"
)

// Store is the consent repository. Get returns an empty set when nothing has
// been granted. Put replaces the stored set.
type Store interface {
	Get(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID) ([]string, error)
	Put(ctx context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID, scopes []string) error
}

func normalize(scopes []string) []string {
	out := slices.Clone(scopes)
	slices.Sort(out)
	return slices.Compact(out)
}
