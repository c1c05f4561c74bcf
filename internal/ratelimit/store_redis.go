package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims the sorted set to the window, then adds the request
// only if it fits. Returns {allowed, count, oldest score in ms}.
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
if count < limit then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  redis.call('PEXPIRE', KEYS[1], window)
  count = count + 1
end
local oldest = now
local first = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if first[2] then oldest = tonumber(first[2]) end
local allowed = 0
if redis.call('ZSCORE', KEYS[1], ARGV[4]) then allowed = 1 end
return {allowed, count, oldest}
`)

// RedisStore shares windows across every guardian instance.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  func() time.Time
}

func NewRedis(client *redis.Client, prefix string, clock func() time.Time) *RedisStore {
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{client: client, prefix: prefix, clock: clock}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	now := s.clock()
	vals, err := slidingWindow.Run(ctx, s.client, []string{s.prefix + ":ratelimit:" + key},
		now.UnixMilli(), limit.Window.Milliseconds(), limit.Requests, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("rate limit %s: unexpected reply %v", key, vals)
	}

	reset := time.UnixMilli(vals[2]).Add(limit.Window)
	res := &Result{Limit: limit.Requests, ResetAt: reset}
	if vals[0] == 1 {
		res.Allowed = true
		res.Remaining = limit.Requests - int(vals[1])
		return res, nil
	}
	res.RetryAfter = retryAfter(reset, now)
	return res, nil
}
