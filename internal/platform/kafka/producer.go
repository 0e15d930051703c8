// Package kafka wraps a franz-go client for producing JSON events to a single
// topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"smartourism/internal/platform/config"
)

// Producer produces records to one topic.
type Producer struct {
	client *kgo.Client
	admin  *kadm.Client
	topic  string
	cfg    config.KafkaConfig
}

// NewProducer creates a producer for cfg.AlertsTopic. The client connects
// lazily; call EnsureTopic or Ping to verify the brokers.
func NewProducer(cfg config.KafkaConfig, opts ...kgo.Opt) (*Producer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka: no brokers configured")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.AlertsTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.RecordRetries(3),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{
		client: client,
		admin:  kadm.NewClient(client),
		topic:  cfg.AlertsTopic,
		cfg:    cfg,
	}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context) error {
	resp, err := p.admin.CreateTopic(ctx, p.cfg.Partitions, p.cfg.Replicas, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

// Produce writes one record synchronously.
func (p *Producer) Produce(ctx context.Context, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: p.topic, Key: key, Value: value}
	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

// Topic returns the destination topic.
func (p *Producer) Topic() string { return p.topic }

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close(ctx context.Context) {
	_ = p.client.Flush(ctx)
	p.client.Close()
}
