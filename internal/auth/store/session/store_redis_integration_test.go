//go:build integration

package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"guardian/internal/auth/models"
	"guardian/internal/auth/store/session"
	"guardian/pkg/platform/sentinel"
	"guardian/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(context.Background()))
}

// TestGETDELSingleWinner verifies real Redis hands a code to exactly one of
// many concurrent exchanges.
func (s *RedisStoreSuite) TestGETDELSingleWinner() {
	ctx := context.Background()
	code := &models.AuthorizationCode{
		Code:        uuid.NewString(),
		TenantID:    "acme",
		ClientID:    "web",
		RedirectURI: "https://app.example.com/cb",
		Scopes:      []string{"openid"},
		ExpiresAt:   time.Now().Add(time.Minute),
	}
	s.Require().NoError(s.store.SaveCode(ctx, code))

	const goroutines = 50
	var wg sync.WaitGroup
	var wins, misses atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ConsumeCode(ctx, "acme", code.Code)
			if err == nil {
				wins.Add(1)
			} else if errors.Is(err, sentinel.ErrNotFound) {
				misses.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one exchange should win")
	s.Equal(int32(goroutines-1), misses.Load())
}

func (s *RedisStoreSuite) TestTTLMatchesExpiry() {
	ctx := context.Background()
	sess := &models.ConsentSession{
		ConsentChallenge: uuid.NewString(),
		TenantID:         "acme",
		ClientID:         "web",
		ExpiresAt:        time.Now().Add(90 * time.Second),
	}
	s.Require().NoError(s.store.SaveConsentSession(ctx, sess))

	ttl, err := s.redis.TTL(ctx, "guardian:acme:consent:"+sess.ConsentChallenge)
	s.Require().NoError(err)
	s.InDelta(90, ttl.Seconds(), 2)
}
