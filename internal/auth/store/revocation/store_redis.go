package revocation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "guardian/pkg/domain"
)

var isCoveredDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "guardian_revocation_check_duration_ms",
	Help:    "Latency of revocation ledger lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// recordScript collapses a write onto any member the scope already holds in
// the same bucket, keeping the earlier start, then trims buckets past
// retention.
//
// KEYS[1] ledger key
// ARGV    scope, bucket, start, end, trimBelow, ttlSeconds
var recordScript = redis.NewScript(`
local key = KEYS[1]
local scope = ARGV[1]
local bucket = ARGV[2]
local start = ARGV[3]
local prefix = scope .. "_"

for _, m in ipairs(redis.call("ZRANGEBYSCORE", key, bucket, bucket)) do
  if string.sub(m, 1, #prefix) == prefix then
    local s = string.match(string.sub(m, #prefix + 1), "^(%-?%d+)_%-?%d+$")
    if s then
      if tonumber(s) < tonumber(start) then
        start = s
      end
      redis.call("ZREM", key, m)
    end
  end
end

redis.call("ZADD", key, bucket, prefix .. start .. "_" .. ARGV[4])

local trimBelow = tonumber(ARGV[5])
if trimBelow > 0 then
  redis.call("ZREMRANGEBYSCORE", key, "-inf", "(" .. ARGV[5])
end
local ttl = tonumber(ARGV[6])
if ttl > 0 then
  redis.call("EXPIRE", key, ttl)
end
return 1
`)

// RedisLedger keeps one sorted set per tenant. Members are scope_start_end in
// unix milliseconds, scored by the bucket of the write in seconds.
type RedisLedger struct {
	client *redis.Client
	opts   options
}

// NewRedis constructs a ledger over client.
func NewRedis(client *redis.Client, opts ...Option) *RedisLedger {
	return &RedisLedger{client: client, opts: newOptions(opts)}
}

func (l *RedisLedger) key(tenantID id.TenantID) string {
	if l.opts.keyPrefix == "" {
		return "revocations:" + tenantID.String()
	}
	return l.opts.keyPrefix + ":revocations:" + tenantID.String()
}

func (l *RedisLedger) RecordRevocation(ctx context.Context, tenantID id.TenantID, scope string, now time.Time) error {
	g := l.opts.granularity

	var ttl int64
	if l.opts.retention > 0 {
		ttl = int64(l.opts.retention/time.Second) + g.seconds()
	}
	err := recordScript.Run(ctx, l.client, []string{l.key(tenantID)},
		scope,
		g.bucket(now.Unix()),
		l.opts.intervalStart(now),
		now.UnixMilli(),
		l.opts.trimBelow(now),
		ttl,
	).Err()
	if err != nil {
		return fmt.Errorf("record revocation: %w", err)
	}
	return nil
}

func (l *RedisLedger) IsCovered(ctx context.Context, tenantID id.TenantID, issuedAt time.Time, scopes ...string) (bool, error) {
	start := time.Now()
	defer func() {
		isCoveredDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if len(scopes) == 0 {
		return false, nil
	}
	t := issuedAt.UnixMilli()
	// Any interval covering t ends at or after t, so its bucket is at least
	// t's bucket.
	members, err := l.client.ZRangeByScore(ctx, l.key(tenantID), &redis.ZRangeBy{
		Min: strconv.FormatInt(l.opts.granularity.bucket(issuedAt.Unix()), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return false, fmt.Errorf("read revocations: %w", err)
	}
	for _, m := range members {
		iv, ok := decodeMember(m)
		if !ok {
			continue
		}
		for _, scope := range scopes {
			if iv.covers(scope, t) {
				return true, nil
			}
		}
	}
	return false, nil
}
