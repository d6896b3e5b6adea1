package model

import (
	"fmt"
	"time"

	"github.com/sentinelledger/sentinel/internal/domain/event"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/events"
)

// FraudRecord is the immutable ledger entry for one transaction's fraud
// score. There is no mutator: a record is created once and only read after.
type FraudRecord struct {
	events.EventCollector
	action        valueobject.FraudAction
	timestamp     int64
	score         valueobject.FraudScore
	transactionID valueobject.TransactionID
	address       valueobject.RecordAddress
	bump          uint8
}

// NewFraudRecord creates the record for transactionID, deriving the action
// from score and the address from transactionID. recordedAt must come from
// the trusted clock. The record carries FraudRecordCreated and, when
// blocked, TransactionBlocked.
func NewFraudRecord(
	transactionID valueobject.TransactionID,
	score valueobject.FraudScore,
	recordedAt time.Time,
) (*FraudRecord, error) {
	address, bump, err := valueobject.DeriveRecordAddress(transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive record address: %w", err)
	}

	r := &FraudRecord{
		transactionID: transactionID,
		score:         score,
		action:        valueobject.ActionFromScore(score),
		timestamp:     recordedAt.Unix(),
		address:       address,
		bump:          bump,
	}

	r.Record(event.NewFraudRecordCreated(
		address.String(),
		transactionID.String(),
		score.Value(),
		r.action.String(),
		r.timestamp,
		bump,
	))
	if r.action.Equal(valueobject.ActionBlocked) {
		r.Record(event.NewTransactionBlocked(address.String(), transactionID.String(), score.Value(), r.timestamp))
	}

	return r, nil
}

// Reconstruct rebuilds a FraudRecord from persistence. No events are recorded.
func Reconstruct(
	transactionID valueobject.TransactionID,
	score valueobject.FraudScore,
	action valueobject.FraudAction,
	timestamp int64,
	address valueobject.RecordAddress,
	bump uint8,
) *FraudRecord {
	return &FraudRecord{
		transactionID: transactionID,
		score:         score,
		action:        action,
		timestamp:     timestamp,
		address:       address,
		bump:          bump,
	}
}

func (r *FraudRecord) TransactionID() valueobject.TransactionID { return r.transactionID }
func (r *FraudRecord) FraudScore() valueobject.FraudScore       { return r.score }
func (r *FraudRecord) ActionTaken() valueobject.FraudAction     { return r.action }
func (r *FraudRecord) Timestamp() int64                         { return r.timestamp }
func (r *FraudRecord) Address() valueobject.RecordAddress       { return r.address }
func (r *FraudRecord) Bump() uint8                              { return r.bump }

// RecordedAt returns the timestamp as a UTC time.
func (r *FraudRecord) RecordedAt() time.Time {
	return time.Unix(r.timestamp, 0).UTC()
}

// DomainEvents returns and clears the collected domain events.
func (r *FraudRecord) DomainEvents() []events.DomainEvent {
	return r.ClearEvents()
}
