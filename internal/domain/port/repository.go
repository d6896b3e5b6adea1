package port

import (
	"context"
	"errors"
	"time"

	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

var (
	// ErrDuplicateRecord is returned by Create when a record already exists
	// at the derived address.
	ErrDuplicateRecord = errors.New("fraud record already exists")
	// ErrRecordNotFound is returned when no record exists at an address.
	ErrRecordNotFound = errors.New("fraud record not found")
)

// RecordRepository defines the persistence port for fraud records. Records
// are never updated or deleted.
type RecordRepository interface {
	// Create stores a new record if and only if its address is unused, together
	// with the record's pending domain events. It is all-or-nothing.
	Create(ctx context.Context, record *model.FraudRecord) error

	// FindByAddress retrieves a record by its derived address.
	FindByAddress(ctx context.Context, address valueobject.RecordAddress) (*model.FraudRecord, error)
}

// Clock is the trusted time source for record timestamps.
type Clock interface {
	Now() (time.Time, error)
}

// SignatureVerifier recovers the identity that signed a submission.
type SignatureVerifier interface {
	RecoverSigner(txID [32]byte, score int, signature string) (string, error)
}
