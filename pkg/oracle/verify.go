package oracle

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// ErrMalformedSignature is returned when a signature cannot be decoded or no
// public key can be recovered from it.
var ErrMalformedSignature = errors.New("oracle: malformed signature")

const signatureLength = 65

// RecoverSigner recovers the lowercase 0x-prefixed address that signed the
// canonical message for (txID, score). The signature is hex-encoded
// r[32] || s[32] || v[1]; v may be 0/1 or 27/28.
func RecoverSigner(txID [32]byte, score int, signatureHex string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: invalid hex: %v", ErrMalformedSignature, err)
	}
	if len(sig) != signatureLength {
		return "", fmt.Errorf("%w: must be %d bytes, got %d", ErrMalformedSignature, signatureLength, len(sig))
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(HashMessage(Message(txID, score)), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// Verifier adapts RecoverSigner to an interface value.
type Verifier struct{}

// RecoverSigner implements signer recovery; see the package-level function.
func (Verifier) RecoverSigner(txID [32]byte, score int, signatureHex string) (string, error) {
	return RecoverSigner(txID, score, signatureHex)
}
