package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for risk oracle calls.
type Metrics struct {
	CallDuration prometheus.Histogram
	CallOutcomes *prometheus.CounterVec
	BreakerOpen  prometheus.Gauge
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartourism_risk_oracle_call_duration_seconds",
			Help:    "Duration of risk oracle HTTP calls, including failures",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		CallOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_risk_oracle_calls_total",
			Help: "Risk oracle calls by outcome (success or failure category)",
		}, []string{"outcome"}),
		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smartourism_risk_oracle_breaker_open",
			Help: "1 while the risk oracle circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveCall(start time.Time) {
	if m != nil {
		m.CallDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.CallOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
	} else {
		m.BreakerOpen.Set(0)
	}
}
