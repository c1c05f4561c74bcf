package session

import (
	"context"
	"sync"
	"time"

	"guardian/internal/auth/models"
	id "guardian/pkg/domain"
)

type memKey struct {
	tenant id.TenantID
	kind   kind
	id     string
}

type memEntry struct {
	value     any
	expiresAt time.Time
}

// InMemoryStore is the single-process counterpart of RedisStore.
type InMemoryStore struct {
	mu      sync.Mutex
	clock   func() time.Time
	entries map[memKey]memEntry
}

func New(clock func() time.Time) *InMemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryStore{clock: clock, entries: make(map[memKey]memEntry)}
}

func (s *InMemoryStore) put(k memKey, v any, expiresAt time.Time) error {
	if k.id == "" {
		return errEmptyID
	}
	if _, err := ttlUntil(expiresAt, s.clock()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[k] = memEntry{value: v, expiresAt: expiresAt}
	return nil
}

func (s *InMemoryStore) get(k memKey, take bool) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok {
		return nil, notFound(k.kind)
	}
	if !s.clock().Before(e.expiresAt) {
		delete(s.entries, k)
		return nil, notFound(k.kind)
	}
	if take {
		delete(s.entries, k)
	}
	return e.value, nil
}

func (s *InMemoryStore) SaveAuthorizeSession(_ context.Context, sess *models.AuthorizeSession) error {
	cp := *sess
	return s.put(memKey{sess.TenantID, kindAuthorize, sess.LoginChallenge}, &cp, sess.ExpiresAt)
}

func (s *InMemoryStore) GetAuthorizeSession(_ context.Context, tenantID id.TenantID, challenge string) (*models.AuthorizeSession, error) {
	v, err := s.get(memKey{tenantID, kindAuthorize, challenge}, false)
	if err != nil {
		return nil, err
	}
	cp := *v.(*models.AuthorizeSession)
	return &cp, nil
}

func (s *InMemoryStore) TakeAuthorizeSession(_ context.Context, tenantID id.TenantID, challenge string) (*models.AuthorizeSession, error) {
	v, err := s.get(memKey{tenantID, kindAuthorize, challenge}, true)
	if err != nil {
		return nil, err
	}
	return v.(*models.AuthorizeSession), nil
}

func (s *InMemoryStore) SaveConsentSession(_ context.Context, sess *models.ConsentSession) error {
	cp := *sess
	return s.put(memKey{sess.TenantID, kindConsent, sess.ConsentChallenge}, &cp, sess.ExpiresAt)
}

func (s *InMemoryStore) GetConsentSession(_ context.Context, tenantID id.TenantID, challenge string) (*models.ConsentSession, error) {
	v, err := s.get(memKey{tenantID, kindConsent, challenge}, false)
	if err != nil {
		return nil, err
	}
	cp := *v.(*models.ConsentSession)
	return &cp, nil
}

func (s *InMemoryStore) TakeConsentSession(_ context.Context, tenantID id.TenantID, challenge string) (*models.ConsentSession, error) {
	v, err := s.get(memKey{tenantID, kindConsent, challenge}, true)
	if err != nil {
		return nil, err
	}
	return v.(*models.ConsentSession), nil
}

func (s *InMemoryStore) SaveCode(_ context.Context, code *models.AuthorizationCode) error {
	cp := *code
	return s.put(memKey{code.TenantID, kindCode, code.Code}, &cp, code.ExpiresAt)
}

func (s *InMemoryStore) ConsumeCode(_ context.Context, tenantID id.TenantID, code string) (*models.AuthorizationCode, error) {
	v, err := s.get(memKey{tenantID, kindCode, code}, true)
	if err != nil {
		return nil, err
	}
	return v.(*models.AuthorizationCode), nil
}

// DeleteExpired drops records past expiry; Redis does this through TTLs.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}
