package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the geofence index.
type Metrics struct {
	FencesLoaded      prometheus.Gauge
	ContainmentChecks *prometheus.CounterVec
	ReloadDuration    prometheus.Histogram
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FencesLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smartourism_geofence_fences_loaded",
			Help: "Number of fences in the in-memory index snapshot",
		}),
		ContainmentChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_geofence_containment_checks_total",
			Help: "Containment checks by result",
		}, []string{"result"}), // result: "inside", "outside"
		ReloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartourism_geofence_reload_duration_seconds",
			Help:    "Duration of index reloads from the fence store",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) SetFencesLoaded(n int) {
	if m != nil {
		m.FencesLoaded.Set(float64(n))
	}
}

func (m *Metrics) IncrementContainment(inside bool) {
	if m == nil {
		return
	}
	result := "outside"
	if inside {
		result = "inside"
	}
	m.ContainmentChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReload(start time.Time) {
	if m != nil {
		m.ReloadDuration.Observe(time.Since(start).Seconds())
	}
}
