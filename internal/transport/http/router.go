// Package httptransport assembles the public HTTP surface: shared
// middleware, module routes, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"smartourism/internal/platform/metrics"
	"smartourism/internal/platform/middleware"
	"smartourism/pkg/platform/httputil"
	"smartourism/pkg/platform/middleware/metadata"
	"smartourism/pkg/platform/middleware/requesttime"
)

const healthCheckTimeout = 2 * time.Second

// Module mounts its routes on the shared router.
type Module interface {
	Register(r chi.Router)
}

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// Options configures NewRouter. Zero values disable the optional parts.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
}

// NewRouter wires middleware, /healthz, /metrics and every module.
func NewRouter(opts Options, modules ...Module) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(logger))
	if opts.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(opts.Metrics))
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", healthHandler(opts.HealthChecks))
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
