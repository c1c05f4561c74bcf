package jwttoken

import (
	"context"
	"crypto"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jwksRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardian_jwks_refresh_total",
	Help: "Remote JWKS fetches by outcome.",
}, []string{"outcome"})

const maxJWKSBytes = 1 << 20

// keySnapshot is immutable once published.
type keySnapshot struct {
	set       jwk.Set
	expiresAt time.Time
}

// RemoteKeySet is a KeySource backed by a JWKS URL. Reads take a lock-free
// snapshot; a stale snapshot is refreshed by exactly one caller while the
// others wait on the mutex and then reuse its result. A kid missing from a
// fresh snapshot does not trigger a refetch, so rotated keys appear only
// once the current snapshot enters its refresh window.
type RemoteKeySet struct {
	url    string
	client *http.Client
	ttl    time.Duration
	skew   time.Duration
	clock  func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	snapshot atomic.Pointer[keySnapshot]
}

type RemoteOption func(*RemoteKeySet)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteKeySet) { r.client = c }
}

// WithCacheTTL sets how long a fetched key set is trusted.
func WithCacheTTL(ttl time.Duration) RemoteOption {
	return func(r *RemoteKeySet) { r.ttl = ttl }
}

// WithRefreshSkew refreshes this long before the cache expires.
func WithRefreshSkew(skew time.Duration) RemoteOption {
	return func(r *RemoteKeySet) { r.skew = skew }
}

func WithRemoteClock(clock func() time.Time) RemoteOption {
	return func(r *RemoteKeySet) { r.clock = clock }
}

func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(r *RemoteKeySet) { r.logger = logger }
}

// NewRemoteKeySet does not fetch; the first Key call does.
func NewRemoteKeySet(url string, opts ...RemoteOption) *RemoteKeySet {
	r := &RemoteKeySet{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		ttl:    15 * time.Minute,
		skew:   30 * time.Second,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.skew >= r.ttl {
		r.skew = r.ttl / 2
	}
	return r
}

func (r *RemoteKeySet) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	snap, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	key, found := snap.set.LookupKeyID(kid)
	if !found {
		return nil, ErrUnknownKeyID
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyType, err)
	}
	if priv, ok := raw.(crypto.Signer); ok {
		return priv.Public(), nil
	}
	return raw, nil
}

func (r *RemoteKeySet) fresh(snap *keySnapshot, now time.Time) bool {
	return snap != nil && now.Before(snap.expiresAt.Add(-r.skew))
}

func (r *RemoteKeySet) current(ctx context.Context) (*keySnapshot, error) {
	now := r.clock()
	if snap := r.snapshot.Load(); r.fresh(snap, now) {
		return snap, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have refreshed while we waited.
	snap := r.snapshot.Load()
	if r.fresh(snap, now) {
		return snap, nil
	}

	next, err := r.fetch(ctx, now)
	if err != nil {
		jwksRefreshes.WithLabelValues("error").Inc()
		if snap != nil && now.Before(snap.expiresAt) {
			r.logger.WarnContext(ctx, "jwks refresh failed, serving cached keys",
				"url", r.url, "error", err)
			return snap, nil
		}
		return nil, err
	}
	jwksRefreshes.WithLabelValues("ok").Inc()
	r.snapshot.Store(next)
	return next, nil
}

func (r *RemoteKeySet) fetch(ctx context.Context, now time.Time) (*keySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrKeySetUnavailable, r.url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetUnavailable, err)
	}
	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse jwks: %w", ErrKeySetUnavailable, err)
	}
	return &keySnapshot{set: set, expiresAt: now.Add(r.ttl)}, nil
}
