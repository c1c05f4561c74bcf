package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"guardian/pkg/requestcontext"
)

var testLimit = Limit{Requests: 3, Window: time.Minute}

type StoreSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	newFunc func(clock func() time.Time) Store
	store   Store
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{newFunc: func(clock func() time.Time) Store { return NewInMemory(clock) }})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &StoreSuite{newFunc: func(clock func() time.Time) Store {
		mr.FlushAll()
		return NewRedis(client, "guardian", clock)
	}})
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = s.newFunc(func() time.Time { return s.now })
}

func (s *StoreSuite) TestAllowsUpToTheLimit() {
	for i := range testLimit.Requests {
		res, err := s.store.Allow(s.ctx, "token:acme:192.0.2.1", testLimit)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(testLimit.Requests-i-1, res.Remaining)
		s.Equal(s.now.Add(time.Minute).Unix(), res.ResetAt.Unix())
	}

	res, err := s.store.Allow(s.ctx, "token:acme:192.0.2.1", testLimit)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(0, res.Remaining)
	s.Equal(60, res.RetryAfter)
}

func (s *StoreSuite) TestWindowSlides() {
	for range testLimit.Requests {
		_, err := s.store.Allow(s.ctx, "k", testLimit)
		s.Require().NoError(err)
	}

	s.now = s.now.Add(30 * time.Second)
	res, err := s.store.Allow(s.ctx, "k", testLimit)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(30, res.RetryAfter)

	s.now = s.now.Add(31 * time.Second)
	res, err = s.store.Allow(s.ctx, "k", testLimit)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *StoreSuite) TestKeysAreIndependent() {
	for range testLimit.Requests {
		_, err := s.store.Allow(s.ctx, "token:acme:192.0.2.1", testLimit)
		s.Require().NoError(err)
	}
	res, err := s.store.Allow(s.ctx, "token:globex:192.0.2.1", testLimit)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, Limit) (*Result, error) {
	return nil, assert.AnError
}

func TestMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	request := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/acme/token", nil)
		ctx := requestcontext.WithTenantID(req.Context(), "acme")
		ctx = requestcontext.WithClientMetadata(ctx, ip, "curl/8.0")
		return req.WithContext(ctx)
	}

	t.Run("rejects over the limit", func(t *testing.T) {
		h := Middleware(NewInMemory(nil), "token", Limit{Requests: 1, Window: time.Minute}, logger)(ok)

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, request("192.0.2.1"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, request("192.0.2.1"))
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, request("198.51.100.7"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("store failures let requests through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Middleware(failingStore{}, "token", testLimit, logger)(ok).ServeHTTP(rr, request("192.0.2.1"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("zero limit disables", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Middleware(failingStore{}, "token", Limit{}, logger)(ok).ServeHTTP(rr, request("192.0.2.1"))
		require.Equal(t, http.StatusNoContent, rr.Code)
		require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	})
}
