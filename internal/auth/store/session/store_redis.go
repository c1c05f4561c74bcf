package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guardian/internal/auth/models"
	id "guardian/pkg/domain"
)

// RedisStore keeps each record as a JSON string under a TTL equal to its
// remaining lifetime. Takes use GETDEL so concurrent consumers of the same
// code or challenge see at most one success.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  func() time.Time
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

func WithClock(clock func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "guardian", clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(tenantID id.TenantID, k kind, recordID string) string {
	return s.prefix + ":" + tenantID.String() + ":" + string(k) + ":" + recordID
}

func (s *RedisStore) put(ctx context.Context, key string, v any, expiresAt time.Time) error {
	ttl, err := ttlUntil(expiresAt, s.clock())
	if err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func (s *RedisStore) fetch(ctx context.Context, k kind, key string, take bool, v any) error {
	var (
		raw []byte
		err error
	)
	if take {
		raw, err = s.client.GetDel(ctx, key).Bytes()
	} else {
		raw, err = s.client.Get(ctx, key).Bytes()
	}
	if errors.Is(err, redis.Nil) {
		return notFound(k)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", k, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", k, err)
	}
	return nil
}

func (s *RedisStore) SaveAuthorizeSession(ctx context.Context, sess *models.AuthorizeSession) error {
	if sess.LoginChallenge == "" {
		return errEmptyID
	}
	return s.put(ctx, s.key(sess.TenantID, kindAuthorize, sess.LoginChallenge), sess, sess.ExpiresAt)
}

func (s *RedisStore) GetAuthorizeSession(ctx context.Context, tenantID id.TenantID, challenge string) (*models.AuthorizeSession, error) {
	var sess models.AuthorizeSession
	if err := s.fetch(ctx, kindAuthorize, s.key(tenantID, kindAuthorize, challenge), false, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) TakeAuthorizeSession(ctx context.Context, tenantID id.TenantID, challenge string) (*models.AuthorizeSession, error) {
	var sess models.AuthorizeSession
	if err := s.fetch(ctx, kindAuthorize, s.key(tenantID, kindAuthorize, challenge), true, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) SaveConsentSession(ctx context.Context, sess *models.ConsentSession) error {
	if sess.ConsentChallenge == "" {
		return errEmptyID
	}
	return s.put(ctx, s.key(sess.TenantID, kindConsent, sess.ConsentChallenge), sess, sess.ExpiresAt)
}

func (s *RedisStore) GetConsentSession(ctx context.Context, tenantID id.TenantID, challenge string) (*models.ConsentSession, error) {
	var sess models.ConsentSession
	if err := s.fetch(ctx, kindConsent, s.key(tenantID, kindConsent, challenge), false, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) TakeConsentSession(ctx context.Context, tenantID id.TenantID, challenge string) (*models.ConsentSession, error) {
	var sess models.ConsentSession
	if err := s.fetch(ctx, kindConsent, s.key(tenantID, kindConsent, challenge), true, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) SaveCode(ctx context.Context, code *models.AuthorizationCode) error {
	if code.Code == "" {
		return errEmptyID
	}
	return s.put(ctx, s.key(code.TenantID, kindCode, code.Code), code, code.ExpiresAt)
}

// ConsumeCode atomically reads and deletes the code.
func (s *RedisStore) ConsumeCode(ctx context.Context, tenantID id.TenantID, code string) (*models.AuthorizationCode, error) {
	var rec models.AuthorizationCode
	if err := s.fetch(ctx, kindCode, s.key(tenantID, kindCode, code), true, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
