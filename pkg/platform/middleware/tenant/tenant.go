// Package tenant resolves the tenant named in the route.
package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

// URLParam is the chi route parameter carrying the tenant.
const URLParam = "tenant"

// Extract reads the {tenant} segment of a chi route, validates it, and sets it
// in the context. Whether the tenant exists is left to the handlers.
//
// Usage:
//
//	r.Route("/{tenant}", func(t chi.Router) {
//	    t.Use(tenant.Extract)
//	    // ... routes
//	})
func Extract(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := id.ParseTenantID(chi.URLParam(r, URLParam))
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "invalid tenant"))
			return
		}
		ctx := requestcontext.WithTenantID(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
