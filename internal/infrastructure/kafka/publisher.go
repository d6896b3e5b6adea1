package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sentinelledger/sentinel/pkg/events"
	pkgkafka "github.com/sentinelledger/sentinel/pkg/kafka"
)

var _ events.EventPublisher = (*Publisher)(nil)

// MessageProducer is the subset of pkg/kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Publisher implements events.EventPublisher using Kafka. Messages are keyed
// by aggregate id so that all events for one record land on one partition.
type Publisher struct {
	producer MessageProducer
	logger   *slog.Logger
	topic    string
}

// NewPublisher creates a new Kafka event publisher.
func NewPublisher(producer MessageProducer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends outbox entries to Kafka in order.
func (p *Publisher) Publish(ctx context.Context, entries ...events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, entry := range entries {
		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_id", entry.ID),
			slog.String("event_type", entry.EventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(entry.Payload)),
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(entry.AggregateID),
			Value: entry.Payload,
			Headers: map[string]string{
				"event_id":       entry.ID,
				"event_type":     entry.EventType,
				"aggregate_type": entry.AggregateType,
			},
		})
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}
	return nil
}
