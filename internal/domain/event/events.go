package event

import (
	"github.com/sentinelledger/sentinel/pkg/events"
)

// AggregateTypeFraudRecord is the aggregate type carried by every fraud ledger event.
const AggregateTypeFraudRecord = "FraudRecord"

const (
	// EventTypeRecordCreated is emitted when a fraud record is committed.
	EventTypeRecordCreated = "fraud.record.created"

	// EventTypeTransactionBlocked is emitted alongside EventTypeRecordCreated
	// when the recorded action is Blocked.
	EventTypeTransactionBlocked = "fraud.transaction.blocked"
)

// FraudRecordCreated is published for every newly recorded fraud score.
type FraudRecordCreated struct {
	events.BaseEvent
	Address       string `json:"address"`
	TransactionID string `json:"transaction_id"`
	ActionTaken   string `json:"action_taken"`
	Timestamp     int64  `json:"timestamp"`
	FraudScore    int    `json:"fraud_score"`
	Bump          uint8  `json:"bump"`
}

// NewFraudRecordCreated builds the event keyed by the record address.
func NewFraudRecordCreated(address, transactionID string, score int, action string, timestamp int64, bump uint8) FraudRecordCreated {
	return FraudRecordCreated{
		BaseEvent:     events.NewBaseEvent(EventTypeRecordCreated, address, AggregateTypeFraudRecord),
		Address:       address,
		TransactionID: transactionID,
		FraudScore:    score,
		ActionTaken:   action,
		Timestamp:     timestamp,
		Bump:          bump,
	}
}

// TransactionBlocked is published when a transaction is blocked, so
// downstream payment rails can halt settlement.
type TransactionBlocked struct {
	events.BaseEvent
	Address       string `json:"address"`
	TransactionID string `json:"transaction_id"`
	Timestamp     int64  `json:"timestamp"`
	FraudScore    int    `json:"fraud_score"`
}

// NewTransactionBlocked builds the event keyed by the record address.
func NewTransactionBlocked(address, transactionID string, score int, timestamp int64) TransactionBlocked {
	return TransactionBlocked{
		BaseEvent:     events.NewBaseEvent(EventTypeTransactionBlocked, address, AggregateTypeFraudRecord),
		Address:       address,
		TransactionID: transactionID,
		FraudScore:    score,
		Timestamp:     timestamp,
	}
}
