package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the alert sink and its event
// publisher.
type Metrics struct {
	AlertsRaised     *prometheus.CounterVec
	AlertsResolved   prometheus.Counter
	PublishOutcomes  *prometheus.CounterVec
	PublishQueueSize prometheus.Gauge
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AlertsRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_alerts_raised_total",
			Help: "Alerts raised by type",
		}, []string{"type"}),
		AlertsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartourism_alerts_resolved_total",
			Help: "Alerts transitioned from open to resolved",
		}),
		PublishOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartourism_alert_events_published_total",
			Help: "Alert events handed to the downstream sink by outcome (sent, failed, dropped)",
		}, []string{"outcome"}),
		PublishQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smartourism_alert_events_queued",
			Help: "Alert events waiting for the publisher worker",
		}),
	}
}

func (m *Metrics) IncrementRaised(alertType string) {
	if m != nil {
		m.AlertsRaised.WithLabelValues(alertType).Inc()
	}
}

func (m *Metrics) IncrementResolved() {
	if m != nil {
		m.AlertsResolved.Inc()
	}
}

func (m *Metrics) IncrementPublish(outcome string) {
	if m != nil {
		m.PublishOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SetQueueSize(n int) {
	if m != nil {
		m.PublishQueueSize.Set(float64(n))
	}
}
