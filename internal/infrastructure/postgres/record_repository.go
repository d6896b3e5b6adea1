package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/events"
	pgutil "github.com/sentinelledger/sentinel/pkg/postgres"
)

// Compile-time interface check
var _ port.RecordRepository = (*RecordRepository)(nil)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pgutil.Querier
	pgutil.TxBeginner
}

// RecordRepository implements port.RecordRepository using PostgreSQL.
type RecordRepository struct {
	db DB
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts the record and its domain events in one transaction. A
// conflict on address or transaction id maps to port.ErrDuplicateRecord.
func (r *RecordRepository) Create(ctx context.Context, record *model.FraudRecord) error {
	raw, err := record.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode fraud record: %w", err)
	}

	entries := make([]events.OutboxEntry, 0, 2)
	for _, evt := range record.DomainEvents() {
		entry, err := events.NewOutboxEntry(evt)
		if err != nil {
			return fmt.Errorf("build outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}

	address := record.Address()
	txID := record.TransactionID()

	return pgutil.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO fraud_records (address, transaction_id, fraud_score, action_taken, recorded_at, bump, raw)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, address[:], txID[:], int16(record.FraudScore().Value()), int16(record.ActionTaken().Ordinal()),
			record.Timestamp(), int16(record.Bump()), raw)
		if err != nil {
			if pgutil.IsUniqueViolation(err, "") {
				return fmt.Errorf("%w: transaction %s", port.ErrDuplicateRecord, txID)
			}
			return fmt.Errorf("insert fraud record: %w", err)
		}

		for _, e := range entries {
			_, err = tx.Exec(ctx, `
				INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, e.ID, e.AggregateID, e.AggregateType, e.EventType, e.Payload, e.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert outbox event %s: %w", e.EventType, err)
			}
		}
		return nil
	})
}

// FindByAddress loads a record from its stored encoding.
func (r *RecordRepository) FindByAddress(ctx context.Context, address valueobject.RecordAddress) (*model.FraudRecord, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT raw FROM fraud_records WHERE address = $1`, address[:]).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: address %s", port.ErrRecordNotFound, address)
		}
		return nil, fmt.Errorf("query fraud record: %w", err)
	}

	record, err := model.UnmarshalFraudRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode fraud record %s: %w", address, err)
	}
	if record.Address() != address {
		return nil, fmt.Errorf("decode fraud record %s: stored under foreign address %s", address, record.Address())
	}
	return record, nil
}
