// Package kafka provides the Kafka-backed audit publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"vetgate/internal/platform/config"
	"vetgate/pkg/platform/audit"
)

// Publisher emits audit events to a Kafka topic. Events are keyed by check ID
// so all events for one check land in the same partition, in order.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to the configured brokers. Returns nil if no brokers
// are configured (audit stays on the structured log).
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Emit publishes one audit event synchronously. Audit delivery is best-effort
// for operations events; callers decide whether a failure fails the operation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.CheckID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (p *Publisher) Close() {
	p.client.Close()
}
