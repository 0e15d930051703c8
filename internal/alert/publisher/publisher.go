// Package publisher fans alert lifecycle events out to downstream
// notification systems without putting them on the request path.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartourism/internal/alert/metrics"
	"smartourism/internal/alert/models"
)

// Kind names an alert lifecycle event.
type Kind string

const (
	KindRaised   Kind = "alert.raised"
	KindResolved Kind = "alert.resolved"
)

// Event is the payload delivered downstream.
type Event struct {
	Kind       Kind         `json:"kind"`
	Alert      models.Alert `json:"alert"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Sink delivers one event. Implementations may block on I/O.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Producer is the subset of the Kafka producer used by KafkaSink.
type Producer interface {
	Produce(ctx context.Context, key, value []byte, headers map[string]string) error
}

// KafkaSink writes events as JSON records keyed by entity id, so one
// entity's events stay ordered within a partition.
type KafkaSink struct {
	producer Producer
}

func NewKafkaSink(producer Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (k *KafkaSink) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	headers := map[string]string{
		"event_kind": string(event.Kind),
		"alert_type": string(event.Alert.Type),
	}
	return k.producer.Produce(ctx, []byte(event.Alert.EntityID.String()), value, headers)
}

// Async queues events on a bounded channel drained by Run. Enqueueing never
// blocks; when the queue is full the event is dropped and counted.
type Async struct {
	sink    Sink
	inbox   chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

type Option func(*Async)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Async) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Async) {
		a.metrics = m
	}
}

// WithSendTimeout bounds each sink call made by the worker.
func WithSendTimeout(d time.Duration) Option {
	return func(a *Async) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func NewAsync(sink Sink, buffer int, opts ...Option) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Async{
		sink:    sink,
		inbox:   make(chan Event, buffer),
		logger:  slog.Default(),
		timeout: 5 * time.Second,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Publish enqueues the event for delivery.
func (a *Async) Publish(ctx context.Context, event Event) {
	select {
	case <-a.closing:
		a.metrics.IncrementPublish("dropped")
		a.logger.WarnContext(ctx, "alert publisher closed, dropping event",
			"kind", event.Kind, "alert_id", event.Alert.ID)
		return
	default:
	}
	select {
	case a.inbox <- event:
		a.metrics.SetQueueSize(len(a.inbox))
	default:
		a.metrics.IncrementPublish("dropped")
		a.logger.WarnContext(ctx, "alert publish queue full, dropping event",
			"kind", event.Kind, "alert_id", event.Alert.ID)
	}
}

// Run delivers queued events until Close is called and the queue drains, or
// ctx is cancelled.
func (a *Async) Run(ctx context.Context) error {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-a.inbox:
			a.deliver(ctx, event)
		case <-a.closing:
			for {
				select {
				case event := <-a.inbox:
					a.deliver(ctx, event)
				default:
					return nil
				}
			}
		}
	}
}

func (a *Async) deliver(ctx context.Context, event Event) {
	a.metrics.SetQueueSize(len(a.inbox))
	sendCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.sink.Publish(sendCtx, event); err != nil {
		a.metrics.IncrementPublish("failed")
		a.logger.ErrorContext(ctx, "failed to publish alert event",
			"kind", event.Kind,
			"alert_id", event.Alert.ID,
			"entity_id", event.Alert.EntityID,
			"error", err,
		)
		return
	}
	a.metrics.IncrementPublish("sent")
}

// Close stops accepting events and waits for Run to drain the queue, up to
// ctx's deadline. Run must have been started.
func (a *Async) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { close(a.closing) })
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain alert publisher: %w", ctx.Err())
	}
}
