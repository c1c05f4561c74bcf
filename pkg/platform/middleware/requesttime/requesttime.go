// Package requesttime pins "now" for the lifetime of a request, so every
// expiry and issue time computed while serving it agrees.
package requesttime

import (
	"net/http"
	"time"

	"guardian/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
