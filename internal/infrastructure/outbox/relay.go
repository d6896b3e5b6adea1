// Package outbox moves committed domain events from the outbox table to the
// event bus.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/sentinelledger/sentinel/pkg/events"
)

// Relay periodically claims unpublished outbox entries and publishes them.
// Delivery is at-least-once: an entry is marked published only after the
// publisher accepted it.
type Relay struct {
	repo      events.OutboxRepository
	publisher events.EventPublisher
	logger    *slog.Logger
	published metric.Int64Counter
	interval  time.Duration
	batchSize int
}

// NewRelay creates a new outbox relay.
func NewRelay(
	repo events.OutboxRepository,
	publisher events.EventPublisher,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	published, err := otel.Meter("github.com/sentinelledger/sentinel/internal/infrastructure/outbox").
		Int64Counter("fraudledger_outbox_published",
			metric.WithDescription("Outbox entries delivered to the event bus."))
	if err != nil {
		otel.Handle(err)
	}

	return &Relay{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		published: published,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run publishes pending entries every interval until ctx is cancelled.
// Call in a goroutine.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
			r.safeDrain(ctx)
		}
	}
}

func (r *Relay) safeDrain(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic in outbox relay", "panic", fmt.Sprint(p))
		}
	}()

	for {
		n, err := r.PublishPending(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Warn("failed to publish outbox entries", "error", err)
			}
			return
		}
		if n < r.batchSize {
			return
		}
	}
}

// PublishPending publishes at most one batch and returns how many entries
// were delivered.
func (r *Relay) PublishPending(ctx context.Context) (int, error) {
	n, err := r.repo.ProcessUnpublished(ctx, r.batchSize, func(ctx context.Context, entries []events.OutboxEntry) error {
		return r.publisher.Publish(ctx, entries...)
	})
	if err != nil {
		return 0, fmt.Errorf("outbox relay: %w", err)
	}
	if n > 0 {
		if r.published != nil {
			r.published.Add(ctx, int64(n))
		}
		r.logger.Debug("published outbox entries", "count", n)
	}
	return n, nil
}
