package oracle

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs submissions on behalf of an oracle key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewSigner loads a hex-encoded secp256k1 private key (with or without 0x).
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("oracle: invalid private key: %w", err)
	}
	return newSigner(key), nil
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("oracle: generate key: %w", err)
	}
	return newSigner(key), nil
}

func newSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()),
	}
}

// Address returns the lowercase 0x-prefixed address of the signing key.
func (s *Signer) Address() string {
	return s.address
}

// PrivateKeyHex returns the hex-encoded private key without 0x prefix.
func (s *Signer) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(s.key))
}

// Sign returns the 0x-prefixed 65-byte signature (r || s || v, v in {27, 28})
// over the canonical message for (txID, score).
func (s *Signer) Sign(txID [32]byte, score int) (string, error) {
	sig, err := crypto.Sign(HashMessage(Message(txID, score)), s.key)
	if err != nil {
		return "", fmt.Errorf("oracle: sign: %w", err)
	}
	sig[64] += 27
	return "0x" + hex.EncodeToString(sig), nil
}
