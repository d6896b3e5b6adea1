package valueobject

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	addressSeed  = []byte("fraud")
	addressOwner = []byte("SentinelLedgerRecord")
)

// errNoViableBump means every bump produced an on-curve hash. Astronomically
// unlikely; surfaced rather than panicking.
var errNoViableBump = errors.New("no off-curve address for any bump")

// RecordAddress is the deterministic storage key of a fraud record.
type RecordAddress [32]byte

// DeriveRecordAddress computes the record address for a transaction id and
// the canonical bump that produced it. Bumps are tried from 255 down to 0 and
// the first Keccak256("fraud" || id || bump || owner) that is not the
// x-coordinate of a secp256k1 point wins, so no private key can control the
// address. The result depends only on id.
func DeriveRecordAddress(id TransactionID) (RecordAddress, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		h := crypto.Keccak256(addressSeed, id[:], []byte{byte(bump)}, addressOwner)
		if isOnCurve(h) {
			continue
		}
		var addr RecordAddress
		copy(addr[:], h)
		return addr, uint8(bump), nil
	}
	return RecordAddress{}, 0, fmt.Errorf("derive address for %s: %w", id, errNoViableBump)
}

// VerifyRecordAddress reports whether addr and bump are the canonical
// derivation for id.
func VerifyRecordAddress(id TransactionID, addr RecordAddress, bump uint8) bool {
	want, wantBump, err := DeriveRecordAddress(id)
	return err == nil && want == addr && wantBump == bump
}

func isOnCurve(x []byte) bool {
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, x...)
	_, err := crypto.DecompressPubkey(compressed)
	return err == nil
}

// ParseRecordAddress decodes a 64 character hex string, with or without 0x.
func ParseRecordAddress(s string) (RecordAddress, error) {
	var addr RecordAddress
	if err := decodeHex32(s, addr[:]); err != nil {
		return RecordAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return addr, nil
}

// String returns the 64 character lowercase hex form without prefix.
func (a RecordAddress) String() string {
	return hex.EncodeToString(a[:])
}
