package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sentinelledger/sentinel/pkg/events"
	pgutil "github.com/sentinelledger/sentinel/pkg/postgres"
)

// Compile-time interface check
var _ events.OutboxRepository = (*OutboxRepository)(nil)

// OutboxRepository implements events.OutboxRepository using PostgreSQL.
type OutboxRepository struct {
	db  DB
	now func() time.Time
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db DB) *OutboxRepository {
	return &OutboxRepository{db: db, now: time.Now}
}

// ProcessUnpublished locks a batch with FOR UPDATE SKIP LOCKED so several
// relays can drain the same table. The lock is held while fn publishes.
func (r *OutboxRepository) ProcessUnpublished(
	ctx context.Context,
	batchSize int,
	fn func(ctx context.Context, entries []events.OutboxEntry) error,
) (int, error) {
	var processed int

	err := pgutil.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id::text, aggregate_id, aggregate_type, event_type, payload, created_at
			FROM outbox
			WHERE published_at IS NULL
			ORDER BY created_at, id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, batchSize)
		if err != nil {
			return fmt.Errorf("query outbox: %w", err)
		}

		entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (events.OutboxEntry, error) {
			var e events.OutboxEntry
			err := row.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Payload, &e.CreatedAt)
			return e, err
		})
		if err != nil {
			return fmt.Errorf("scan outbox: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}

		if err := fn(ctx, entries); err != nil {
			return err
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if _, err := tx.Exec(ctx,
			`UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`,
			r.now().UTC(), ids,
		); err != nil {
			return fmt.Errorf("mark outbox published: %w", err)
		}

		processed = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}
