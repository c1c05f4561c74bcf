// Package revocation records bulk revocations as time intervals per scope so
// "every token issued to user U before now" can be revoked without touching
// the tokens themselves.
package revocation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	id "guardian/pkg/domain"
)

// Ledger answers whether a token issued at some instant falls inside a
// revoked interval for any of its scopes.
type Ledger interface {
	// RecordRevocation covers every token of scope issued at or before now,
	// back to the ledger's retention horizon.
	RecordRevocation(ctx context.Context, tenantID id.TenantID, scope string, now time.Time) error
	// IsCovered reports whether a token issued at issuedAt is revoked under
	// any of scopes.
	IsCovered(ctx context.Context, tenantID id.TenantID, issuedAt time.Time, scopes ...string) (bool, error)
}

// Granularity is the bucket width that same-scope writes collapse into.
type Granularity time.Duration

const (
	Coarse Granularity = Granularity(60 * time.Second)
	Fine   Granularity = Granularity(10 * time.Second)
)

// ParseGranularity maps the configured name onto a width.
func ParseGranularity(name string) (Granularity, error) {
	switch strings.ToLower(name) {
	case "coarse", "":
		return Coarse, nil
	case "fine":
		return Fine, nil
	default:
		return 0, fmt.Errorf("unknown revocation granularity %q", name)
	}
}

func (g Granularity) seconds() int64 {
	return int64(time.Duration(g) / time.Second)
}

// bucket floors unix seconds to a bucket index.
func (g Granularity) bucket(unix int64) int64 {
	w := g.seconds()
	if unix < 0 {
		return (unix - w + 1) / w
	}
	return unix / w
}

const WildcardScope = "*"

func UserScope(userID id.UserID) string       { return "user:" + userID.String() }
func ClientScope(clientID id.ClientID) string { return "client:" + clientID.String() }

// interval is a revoked span in unix milliseconds, both ends inclusive.
type interval struct {
	scope string
	start int64
	end   int64
}

func (iv interval) covers(scope string, t int64) bool {
	return iv.scope == scope && iv.start <= t && t <= iv.end
}

// encodeMember renders scope_start_end. Scopes may contain "_", so decoding
// splits from the right.
func encodeMember(iv interval) string {
	return iv.scope + "_" + strconv.FormatInt(iv.start, 10) + "_" + strconv.FormatInt(iv.end, 10)
}

func decodeMember(member string) (interval, bool) {
	i := strings.LastIndexByte(member, '_')
	if i <= 0 {
		return interval{}, false
	}
	end, err := strconv.ParseInt(member[i+1:], 10, 64)
	if err != nil {
		return interval{}, false
	}
	rest := member[:i]
	j := strings.LastIndexByte(rest, '_')
	if j <= 0 {
		return interval{}, false
	}
	start, err := strconv.ParseInt(rest[j+1:], 10, 64)
	if err != nil {
		return interval{}, false
	}
	return interval{scope: rest[:j], start: start, end: end}, true
}

// options shared by both implementations.
type options struct {
	granularity Granularity
	retention   time.Duration
	keyPrefix   string
}

type Option func(*options)

func WithGranularity(g Granularity) Option {
	return func(o *options) {
		if g > 0 {
			o.granularity = g
		}
	}
}

// WithRetention bounds how far back a revocation reaches and how long it is
// kept. It should be at least the longest access-token lifetime; zero keeps
// revocations forever and reaches back to the epoch.
func WithRetention(d time.Duration) Option {
	return func(o *options) { o.retention = d }
}

func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

func newOptions(opts []Option) options {
	o := options{granularity: Coarse}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// intervalStart is the retention horizon for a write at now, floored to its
// bucket and expressed in unix milliseconds.
func (o options) intervalStart(now time.Time) int64 {
	if o.retention <= 0 {
		return 0
	}
	horizon := now.Add(-o.retention).Unix()
	return o.granularity.bucket(horizon) * o.granularity.seconds() * 1000
}

// trimBelow is the first bucket that may still hold a live interval; zero
// disables trimming.
func (o options) trimBelow(now time.Time) int64 {
	if o.retention <= 0 {
		return 0
	}
	return o.granularity.bucket(now.Add(-o.retention).Unix())
}
