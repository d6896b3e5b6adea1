package testutil

import (
	"testing"

	"github.com/sentinelledger/sentinel/pkg/oracle"
)

// Deterministic oracle identity for tests: the first account of the default
// hardhat development mnemonic. Never use outside tests.
const (
	OracleKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	OracleAddress = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
)

// TxID returns a transaction id whose bytes are all zero except the last,
// matching the 0x00..01 / 0x00..02 style ids used in scenarios.
func TxID(last byte) [32]byte {
	var id [32]byte
	id[31] = last
	return id
}

// OracleSigner returns a signer for OracleKey.
func OracleSigner(t testing.TB) *oracle.Signer {
	t.Helper()
	s, err := oracle.NewSigner(OracleKey)
	if err != nil {
		t.Fatalf("failed to load test oracle key: %v", err)
	}
	return s
}

// SignSubmission signs (txID, score) with the test oracle key.
func SignSubmission(t testing.TB, txID [32]byte, score int) string {
	t.Helper()
	sig, err := OracleSigner(t).Sign(txID, score)
	if err != nil {
		t.Fatalf("failed to sign submission: %v", err)
	}
	return sig
}
