package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

// Fixed-width little-endian layout of an encoded FraudRecord.
const (
	discriminatorSize = 8
	offTransactionID  = discriminatorSize
	offScore          = offTransactionID + 32
	offAction         = offScore + 1
	offTimestamp      = offAction + 1
	offBump           = offTimestamp + 8
	offReserved       = offBump + 1

	// ReservedSize is the zeroed margin kept for future fields.
	ReservedSize = 100
	// RecordSize is the total encoded size of a FraudRecord.
	RecordSize = offReserved + ReservedSize
)

// ErrInvalidEncoding is returned when bytes do not decode to a FraudRecord.
var ErrInvalidEncoding = errors.New("invalid fraud record encoding")

var recordDiscriminator = func() [discriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:FraudRecord"))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}()

// MarshalBinary encodes the record into its RecordSize-byte layout.
func (r *FraudRecord) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf, recordDiscriminator[:])
	copy(buf[offTransactionID:], r.transactionID[:])
	buf[offScore] = r.score.Uint8()
	buf[offAction] = r.action.Ordinal()
	binary.LittleEndian.PutUint64(buf[offTimestamp:], uint64(r.timestamp))
	buf[offBump] = r.bump
	return buf, nil
}

// UnmarshalFraudRecord decodes a record produced by MarshalBinary. The
// address is re-derived from the transaction id and must match the stored
// bump, and the stored action must be the one the score maps to (Flagged is
// accepted for any score). Bytes in the reserved area are ignored.
func UnmarshalFraudRecord(data []byte) (*FraudRecord, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrInvalidEncoding, len(data), RecordSize)
	}
	if !bytes.Equal(data[:discriminatorSize], recordDiscriminator[:]) {
		return nil, fmt.Errorf("%w: unknown discriminator %x", ErrInvalidEncoding, data[:discriminatorSize])
	}

	var txID valueobject.TransactionID
	copy(txID[:], data[offTransactionID:offScore])

	score, err := valueobject.NewFraudScore(int(data[offScore]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	action, err := valueobject.FraudActionFromOrdinal(data[offAction])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if want := valueobject.ActionFromScore(score); !action.Equal(want) && !action.Equal(valueobject.ActionFlagged) {
		return nil, fmt.Errorf("%w: action %s contradicts score %d", ErrInvalidEncoding, action, score.Value())
	}
	timestamp := int64(binary.LittleEndian.Uint64(data[offTimestamp:offBump]))
	bump := data[offBump]

	address, wantBump, err := valueobject.DeriveRecordAddress(txID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if bump != wantBump {
		return nil, fmt.Errorf("%w: bump %d is not canonical for %s", ErrInvalidEncoding, bump, txID)
	}

	return Reconstruct(txID, score, action, timestamp, address, bump), nil
}
