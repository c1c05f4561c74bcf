package consent

import (
	"context"
	"sync"

	id "guardian/pkg/domain"
)

type grantKey struct {
	tenantID id.TenantID
	clientID id.ClientID
	userID   id.UserID
}

// InMemoryStore is a process-local Store for tests and single-node use.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey][]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{grants: make(map[grantKey][]string)}
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return normalize(s.grants[grantKey{tenantID, clientID, userID}]), nil
}

func (s *InMemoryStore) Put(_ context.Context, tenantID id.TenantID, clientID id.ClientID, userID id.UserID, scopes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := grantKey{tenantID, clientID, userID}
	if len(scopes) == 0 {
		delete(s.grants, k)
		return nil
	}
	s.grants[k] = normalize(scopes)
	return nil
}
