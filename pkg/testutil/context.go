package testutil

import (
	"context"
	"time"

	id "guardian/pkg/domain"
	"guardian/pkg/requestcontext"
)

// RequestContext builds the context the middleware chain would: tenant,
// pinned time and client metadata.
func RequestContext(tenantID id.TenantID, now time.Time) context.Context {
	ctx := requestcontext.WithTenantID(context.Background(), tenantID)
	ctx = requestcontext.WithTime(ctx, now)
	return requestcontext.WithClientMetadata(ctx, "203.0.113.7", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)")
}
