package revocation

import (
	"context"
	"sync"
	"time"

	id "guardian/pkg/domain"
)

// InMemoryLedger mirrors RedisLedger for tests and single-process runs.
type InMemoryLedger struct {
	mu      sync.RWMutex
	opts    options
	tenants map[id.TenantID]map[int64][]interval
}

func NewInMemory(opts ...Option) *InMemoryLedger {
	return &InMemoryLedger{
		opts:    newOptions(opts),
		tenants: make(map[id.TenantID]map[int64][]interval),
	}
}

func (l *InMemoryLedger) RecordRevocation(_ context.Context, tenantID id.TenantID, scope string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	buckets, ok := l.tenants[tenantID]
	if !ok {
		buckets = make(map[int64][]interval)
		l.tenants[tenantID] = buckets
	}

	b := l.opts.granularity.bucket(now.Unix())
	next := interval{scope: scope, start: l.opts.intervalStart(now), end: now.UnixMilli()}
	kept := buckets[b][:0]
	for _, iv := range buckets[b] {
		if iv.scope == scope {
			next.start = min(next.start, iv.start)
			continue
		}
		kept = append(kept, iv)
	}
	buckets[b] = append(kept, next)

	if below := l.opts.trimBelow(now); below > 0 {
		for bucket := range buckets {
			if bucket < below {
				delete(buckets, bucket)
			}
		}
	}
	return nil
}

func (l *InMemoryLedger) IsCovered(_ context.Context, tenantID id.TenantID, issuedAt time.Time, scopes ...string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t := issuedAt.UnixMilli()
	from := l.opts.granularity.bucket(issuedAt.Unix())
	for bucket, ivs := range l.tenants[tenantID] {
		if bucket < from {
			continue
		}
		for _, iv := range ivs {
			for _, scope := range scopes {
				if iv.covers(scope, t) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// Len counts stored intervals for tenantID.
func (l *InMemoryLedger) Len(tenantID id.TenantID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, ivs := range l.tenants[tenantID] {
		n += len(ivs)
	}
	return n
}
