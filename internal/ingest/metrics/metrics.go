package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrichment outcomes.
const (
	OutcomeEnriched     = "enriched"
	OutcomeSkipped      = "skipped"
	OutcomeUnavailable  = "unavailable"
	OutcomeUpdateFailed = "update_failed"
)

// Metrics provides observability for the ingestion pipeline.
type Metrics struct {
	PipelineDuration  prometheus.Histogram
	Enrichment        *prometheus.CounterVec
	AlertRaiseFailure *prometheus.CounterVec
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartourism_ingest_duration_seconds",
			Help:    "End-to-end duration of location ingestion, enrichment and alerting",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Enrichment: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_ingest_enrichment_total",
			Help: "Risk enrichment attempts by outcome",
		}, []string{"outcome"}),
		AlertRaiseFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_ingest_alert_raise_failures_total",
			Help: "Alerts the pipeline failed to raise, by alert type",
		}, []string{"type"}),
	}
}

func (m *Metrics) ObservePipeline(start time.Time) {
	if m != nil {
		m.PipelineDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementEnrichment(outcome string) {
	if m != nil {
		m.Enrichment.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementAlertRaiseFailure(alertType string) {
	if m != nil {
		m.AlertRaiseFailure.WithLabelValues(alertType).Inc()
	}
}
