package httptransport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"guardian/pkg/platform/httputil"
	"guardian/pkg/platform/middleware/metadata"
	"guardian/pkg/platform/middleware/request"
	"guardian/pkg/platform/middleware/requesttime"
	tenantmw "guardian/pkg/platform/middleware/tenant"
)

const defaultRequestTimeout = 30 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// RouterConfig holds the process-level routes and limits.
type RouterConfig struct {
	RequestTimeout time.Duration
	// Metrics serves /metrics when set.
	Metrics      http.Handler
	HealthChecks map[string]HealthCheck
}

// NewRouter wires the middleware chain, the process routes, and every
// tenant's routes under /{tenant}.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/{"+tenantmw.URLParam+"}", func(r chi.Router) {
		r.Use(tenantmw.Extract)
		h.Register(r)
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check concurrently and reports 503 if any fails.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			g       errgroup.Group
			mu      sync.Mutex
			ctx     = r.Context()
			results = make(map[string]string, len(checks))
		)
		for name, check := range checks {
			g.Go(func() error {
				err := check(ctx)
				status := "ok"
				if err != nil {
					status = err.Error()
				}
				mu.Lock()
				results[name] = status
				mu.Unlock()
				return err
			})
		}

		if err := g.Wait(); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Checks: results})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Checks: results})
	}
}
