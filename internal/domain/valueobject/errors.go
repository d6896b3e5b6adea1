package valueobject

import "errors"

var (
	// ErrInvalidScoreRange is returned for a fraud score outside [0, 100].
	ErrInvalidScoreRange = errors.New("fraud score out of range")
	// ErrInvalidTransactionID is returned for a transaction id that is not 32 hex-encoded bytes.
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	// ErrInvalidAddress is returned for a record address that is not 32 hex-encoded bytes.
	ErrInvalidAddress = errors.New("invalid record address")
)
