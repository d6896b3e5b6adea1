package valueobject

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// TransactionID is the 32-byte identifier of the transaction a fraud record
// describes. It is immutable and doubles as the record's address seed.
type TransactionID [32]byte

// ParseTransactionID decodes a 64 character hex string, with or without 0x.
func ParseTransactionID(s string) (TransactionID, error) {
	var id TransactionID
	if err := decodeHex32(s, id[:]); err != nil {
		return TransactionID{}, fmt.Errorf("%w: %v", ErrInvalidTransactionID, err)
	}
	return id, nil
}

// String returns the 64 character lowercase hex form without prefix.
func (id TransactionID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns a copy of the identifier bytes.
func (id TransactionID) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

func decodeHex32(s string, dst []byte) error {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != 2*len(dst) {
		return fmt.Errorf("want %d hex characters, got %d", 2*len(dst), len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return err
	}
	return nil
}
