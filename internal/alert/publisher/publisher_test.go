package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartourism/internal/alert/metrics"
	"smartourism/internal/alert/models"
	id "smartourism/pkg/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Publish(ctx context.Context, event Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

type recordingProducer struct {
	key, value []byte
	headers    map[string]string
}

func (p *recordingProducer) Produce(_ context.Context, key, value []byte, headers map[string]string) error {
	p.key, p.value, p.headers = key, value, headers
	return nil
}

func testEvent(t *testing.T, kind Kind) Event {
	t.Helper()
	entityID, err := id.ParseEntityID("2f0e7c52-8d0b-4a57-9d43-1f0f3f1c0a11")
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	alert, err := models.NewAlert(id.NewAlertID(), entityID, models.TypeAnomaly, "AI risk=0.85, label=high", now)
	require.NoError(t, err)
	return Event{Kind: kind, Alert: *alert, OccurredAt: now}
}

func TestAsyncDeliversAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	m := metrics.NewWith(prometheus.NewRegistry())
	a := NewAsync(sink, 8, WithMetrics(m))

	for range 3 {
		a.Publish(context.Background(), testEvent(t, KindRaised))
	}

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))
	require.NoError(t, <-runErr)

	assert.Len(t, sink.received(), 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("sent")))

	a.Publish(context.Background(), testEvent(t, KindRaised))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("dropped")))
}

func TestAsyncDropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	m := metrics.NewWith(prometheus.NewRegistry())
	a := NewAsync(sink, 1, WithMetrics(m))

	a.Publish(context.Background(), testEvent(t, KindRaised))
	a.Publish(context.Background(), testEvent(t, KindRaised))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("dropped")))
}

func TestAsyncSinkFailureIsCounted(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	m := metrics.NewWith(prometheus.NewRegistry())
	a := NewAsync(sink, 4, WithMetrics(m))
	a.Publish(context.Background(), testEvent(t, KindResolved))

	go func() { _ = a.Run(context.Background()) }()
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("failed")))
}

func TestAsyncCloseRespectsDeadline(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	defer close(sink.block)
	a := NewAsync(sink, 4)
	a.Publish(context.Background(), testEvent(t, KindRaised))
	go func() { _ = a.Run(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)
}

func TestKafkaSinkKeysByEntity(t *testing.T) {
	producer := &recordingProducer{}
	event := testEvent(t, KindRaised)

	require.NoError(t, NewKafkaSink(producer).Publish(context.Background(), event))

	assert.Equal(t, event.Alert.EntityID.String(), string(producer.key))
	assert.Equal(t, "alert.raised", producer.headers["event_kind"])
	assert.Equal(t, "anomaly", producer.headers["alert_type"])

	var decoded Event
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, event.Alert.ID, decoded.Alert.ID)
	assert.Equal(t, KindRaised, decoded.Kind)
}
