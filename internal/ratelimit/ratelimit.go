// Package ratelimit throttles the credential-bearing endpoints with a
// sliding window per tenant and client IP.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Limit is the number of requests allowed in any Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result describes the window after a request was counted (or refused).
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds, only set when not allowed.
	RetryAfter int
}

// Store counts requests per key. Allow must check and record atomically.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

func retryAfter(resetAt, now time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
