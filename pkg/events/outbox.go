package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OutboxEntry represents a domain event stored in the outbox table.
type OutboxEntry struct {
	CreatedAt     time.Time
	PublishedAt   *time.Time
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       []byte
}

// NewOutboxEntry creates an OutboxEntry from a DomainEvent.
// The payload is produced by JSON-marshalling the event itself.
func NewOutboxEntry(event DomainEvent) (OutboxEntry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("events: marshal %s: %w", event.EventType(), err)
	}
	return OutboxEntry{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// OutboxRepository is the port the outbox relay drains. Entries are written
// by the aggregate repositories inside the same transaction as the aggregate.
type OutboxRepository interface {
	// ProcessUnpublished claims up to batchSize unpublished entries, oldest
	// first, and passes them to fn. Entries are marked published only when fn
	// returns nil; otherwise they stay pending for the next call. Entries
	// claimed by one caller are skipped by concurrent callers.
	ProcessUnpublished(ctx context.Context, batchSize int, fn func(ctx context.Context, entries []OutboxEntry) error) (int, error)
}

// EventPublisher delivers outbox entries to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, entries ...OutboxEntry) error
}
