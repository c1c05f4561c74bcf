package refreshtoken

import (
	"context"
	"slices"
	"sync"
	"time"

	"guardian/internal/auth/models"
	id "guardian/pkg/domain"
)

// InMemoryStore keeps refresh and SSO tokens in maps for tests and dev.
type InMemoryStore struct {
	mu      sync.Mutex
	refresh map[string]models.RefreshTokenRecord
	sso     map[string]models.SSOTokenRecord
}

func New() *InMemoryStore {
	return &InMemoryStore{
		refresh: make(map[string]models.RefreshTokenRecord),
		sso:     make(map[string]models.SSOTokenRecord),
	}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[rec.Token] = cloneRefresh(*rec)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, tenantID id.TenantID, token string) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.refresh[token]
	if !ok || rec.TenantID != tenantID {
		return nil, errTokenNotFound("refresh token")
	}
	out := cloneRefresh(rec)
	return &out, nil
}

func (s *InMemoryStore) Rotate(_ context.Context, tenantID id.TenantID, oldToken string, next *models.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.refresh[oldToken]
	if !ok || old.TenantID != tenantID || !old.Active {
		return errRotated()
	}
	old.Active = false
	s.refresh[oldToken] = old
	s.refresh[next.Token] = cloneRefresh(*next)

	for k, sso := range s.sso {
		if sso.TenantID == tenantID && sso.RefreshToken == oldToken && sso.Active {
			sso.RefreshToken = next.Token
			s.sso[k] = sso
		}
	}
	return nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, tenantID id.TenantID, token string, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.refresh[token]
	if !ok || rec.TenantID != tenantID || (!clientID.IsNil() && rec.ClientID != clientID) {
		return errTokenNotFound("refresh token")
	}
	rec.Active = false
	s.refresh[token] = rec
	s.deactivateSSOLocked(func(sso models.SSOTokenRecord) bool {
		return sso.TenantID == tenantID && sso.RefreshToken == token
	})
	return nil
}

func (s *InMemoryStore) DeactivateForUser(_ context.Context, tenantID id.TenantID, userID id.UserID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.deactivateRefreshLocked(func(r models.RefreshTokenRecord) bool {
		return r.TenantID == tenantID && r.UserID == userID
	})
	s.deactivateSSOLocked(func(sso models.SSOTokenRecord) bool {
		return sso.TenantID == tenantID && sso.UserID == userID
	})
	return n, nil
}

func (s *InMemoryStore) DeactivateForClient(_ context.Context, tenantID id.TenantID, clientID id.ClientID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.deactivateRefreshLocked(func(r models.RefreshTokenRecord) bool {
		return r.TenantID == tenantID && r.ClientID == clientID
	})
	s.deactivateSSOLocked(func(sso models.SSOTokenRecord) bool {
		return sso.TenantID == tenantID && sso.ClientIDIssuedTo == clientID
	})
	return n, nil
}

func (s *InMemoryStore) DeactivateForTenant(_ context.Context, tenantID id.TenantID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.deactivateRefreshLocked(func(r models.RefreshTokenRecord) bool {
		return r.TenantID == tenantID
	})
	s.deactivateSSOLocked(func(sso models.SSOTokenRecord) bool {
		return sso.TenantID == tenantID
	})
	return n, nil
}

func (s *InMemoryStore) CreateSSO(_ context.Context, rec *models.SSOTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sso[rec.Token] = cloneSSO(*rec)
	return nil
}

func (s *InMemoryStore) FindSSO(_ context.Context, tenantID id.TenantID, token string) (*models.SSOTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sso[token]
	if !ok || rec.TenantID != tenantID {
		return nil, errTokenNotFound("sso token")
	}
	out := cloneSSO(rec)
	return &out, nil
}

func (s *InMemoryStore) AddSSOClient(_ context.Context, tenantID id.TenantID, token string, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sso[token]
	if !ok || rec.TenantID != tenantID || !rec.Active {
		return errTokenNotFound("sso token")
	}
	if !slices.Contains(rec.ClientIDsUsedBy, clientID) {
		rec.ClientIDsUsedBy = append(slices.Clone(rec.ClientIDsUsedBy), clientID)
		s.sso[token] = rec
	}
	return nil
}

func (s *InMemoryStore) DeactivateSSO(_ context.Context, tenantID id.TenantID, refreshTokens []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deactivateSSOLocked(func(sso models.SSOTokenRecord) bool {
		return sso.TenantID == tenantID && slices.Contains(refreshTokens, sso.RefreshToken)
	}), nil
}

// DeleteExpired removes refresh and SSO tokens past expiry at now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, r := range s.refresh {
		if !now.Before(r.ExpiresAt) {
			delete(s.refresh, k)
			n++
		}
	}
	for k, r := range s.sso {
		if !now.Before(r.ExpiresAt) {
			delete(s.sso, k)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) deactivateRefreshLocked(match func(models.RefreshTokenRecord) bool) int64 {
	var n int64
	for k, r := range s.refresh {
		if r.Active && match(r) {
			r.Active = false
			s.refresh[k] = r
			n++
		}
	}
	return n
}

func (s *InMemoryStore) deactivateSSOLocked(match func(models.SSOTokenRecord) bool) int64 {
	var n int64
	for k, r := range s.sso {
		if r.Active && match(r) {
			r.Active = false
			s.sso[k] = r
			n++
		}
	}
	return n
}

func cloneRefresh(r models.RefreshTokenRecord) models.RefreshTokenRecord {
	r.Scopes = slices.Clone(r.Scopes)
	r.AuthMethods = slices.Clone(r.AuthMethods)
	return r
}

func cloneSSO(r models.SSOTokenRecord) models.SSOTokenRecord {
	r.AuthMethods = slices.Clone(r.AuthMethods)
	r.ClientIDsUsedBy = slices.Clone(r.ClientIDsUsedBy)
	return r
}
