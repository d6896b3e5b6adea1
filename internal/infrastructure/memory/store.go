// Package memory is an in-process store for STORE_DRIVER=memory, used for
// local development and tests. Contents are lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/events"
)

var (
	_ port.RecordRepository   = (*Store)(nil)
	_ events.OutboxRepository = (*Store)(nil)
)

type outboxRow struct {
	entry   events.OutboxEntry
	claimed bool
}

// Store keeps encoded records and their outbox entries behind one mutex so
// that record creation and event capture are atomic, as in PostgreSQL.
type Store struct {
	records map[valueobject.RecordAddress][]byte
	txIDs   map[valueobject.TransactionID]struct{}
	outbox  []*outboxRow
	mu      sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[valueobject.RecordAddress][]byte),
		txIDs:   make(map[valueobject.TransactionID]struct{}),
	}
}

// Create stores the record if its address and transaction id are unused.
func (s *Store) Create(_ context.Context, record *model.FraudRecord) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Address()]; ok {
		return fmt.Errorf("%w: transaction %s", port.ErrDuplicateRecord, record.TransactionID())
	}
	if _, ok := s.txIDs[record.TransactionID()]; ok {
		return fmt.Errorf("%w: transaction %s", port.ErrDuplicateRecord, record.TransactionID())
	}

	s.records[record.Address()] = raw
	s.txIDs[record.TransactionID()] = struct{}{}
	for _, e := range entries {
		s.outbox = append(s.outbox, &outboxRow{entry: e})
	}
	return nil
}

// FindByAddress decodes a fresh copy of the stored record.
func (s *Store) FindByAddress(_ context.Context, address valueobject.RecordAddress) (*model.FraudRecord, error) {
	s.mu.Lock()
	raw, ok := s.records[address]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: address %s", port.ErrRecordNotFound, address)
	}
	record, err := model.UnmarshalFraudRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("decode fraud record %s: %w", address, err)
	}
	return record, nil
}

// ProcessUnpublished claims pending entries, oldest first, runs fn without
// holding the lock and then either removes them (published) or releases
// the claim.
func (s *Store) ProcessUnpublished(
	ctx context.Context,
	batchSize int,
	fn func(ctx context.Context, entries []events.OutboxEntry) error,
) (int, error) {
	s.mu.Lock()
	var claimed []*outboxRow
	for _, row := range s.outbox {
		if len(claimed) == batchSize {
			break
		}
		if !row.claimed {
			row.claimed = true
			claimed = append(claimed, row)
		}
	}
	s.mu.Unlock()

	if len(claimed) == 0 {
		return 0, nil
	}

	entries := make([]events.OutboxEntry, len(claimed))
	for i, row := range claimed {
		entries[i] = row.entry
	}

	err := fn(ctx, entries)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		for _, row := range claimed {
			row.claimed = false
		}
		return 0, err
	}

	published := make(map[*outboxRow]struct{}, len(claimed))
	for _, row := range claimed {
		published[row] = struct{}{}
	}
	remaining := s.outbox[:0]
	for _, row := range s.outbox {
		if _, ok := published[row]; !ok {
			remaining = append(remaining, row)
		}
	}
	s.outbox = remaining

	return len(claimed), nil
}

// Pending returns the number of unpublished outbox entries.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

// Ping always succeeds; it lets the store stand in for a database in
// readiness checks.
func (s *Store) Ping(context.Context) error {
	return nil
}
