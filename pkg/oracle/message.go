// Package oracle holds the wire contract between a fraud-scoring oracle and
// the ledger: the canonical message an oracle signs for a submission, EIP-191
// signing, and signer recovery.
package oracle

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

const messageDomain = "SentinelLedger|record_fraud_score"

// Message builds the canonical submission message
// "SentinelLedger|record_fraud_score|{txid hex}|{score}".
func Message(txID [32]byte, score int) string {
	return fmt.Sprintf("%s|%s|%d", messageDomain, hex.EncodeToString(txID[:]), score)
}

// HashMessage creates an Ethereum signed message hash. This prefixes the
// message with "\x19Ethereum Signed Message:\n{len}" as per EIP-191.
func HashMessage(message string) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix + message))
}
