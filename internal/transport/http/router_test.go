package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartourism/internal/platform/metrics"
	"smartourism/internal/platform/middleware"
	"smartourism/pkg/platform/httputil"
	"smartourism/pkg/requestcontext"
	"smartourism/pkg/testutil"
)

type echoModule struct{}

func (echoModule) Register(r chi.Router) {
	r.Get("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"request_id": requestcontext.RequestID(r.Context()),
			"now":        requestcontext.Now(r.Context()).String(),
		})
	})
	r.Get("/api/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func TestNewRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(Options{
		Metrics:        metrics.NewWith(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		},
	}, echoModule{})

	t.Run("module routes get request context", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/echo")
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "req-123", (*body)["request_id"])
		assert.NotEmpty(t, (*body)["now"])
	})

	t.Run("panics become internal errors", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/panic"))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
	})

	t.Run("health reports every check", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[HealthResponse](t, rr)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok"}, body.Checks)
	})

	t.Run("metrics endpoint exposes request latency", func(t *testing.T) {
		testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/echo"))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "smartourism_http_requests_total")
	})
}

func TestHealthDegraded(t *testing.T) {
	router := NewRouter(Options{
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := testutil.UnmarshalResponse[HealthResponse](t, rr)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}
