package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for location storage.
type Metrics struct {
	AppendDuration prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	CacheErrors    prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AppendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartourism_location_append_duration_seconds",
			Help:    "Duration of location appends (the durable write on the ingest path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_location_latest_cache_lookups_total",
			Help: "Latest-point cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss"
		CacheErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartourism_location_latest_cache_errors_total",
			Help: "Redis errors encountered by the latest-point cache",
		}),
	}
}

func (m *Metrics) ObserveAppend(start time.Time) {
	if m != nil {
		m.AppendDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementCacheHit() {
	if m != nil {
		m.CacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) IncrementCacheMiss() {
	if m != nil {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) IncrementCacheError() {
	if m != nil {
		m.CacheErrors.Inc()
	}
}
