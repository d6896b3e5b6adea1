package service

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidOracle is returned when a submission is not signed by the
// configured oracle, or when no oracle is configured.
var ErrInvalidOracle = errors.New("caller is not the authorized oracle")

// OracleAuthority holds the single identity allowed to record fraud scores.
// The identity can be rotated at runtime; readers always see either the old
// or the new value.
type OracleAuthority struct {
	address atomic.Pointer[string]
}

// NewOracleAuthority creates an authority for address. An empty address is
// allowed and rejects every caller.
func NewOracleAuthority(address string) (*OracleAuthority, error) {
	a := &OracleAuthority{}
	if err := a.Rotate(address); err != nil {
		return nil, err
	}
	return a, nil
}

// Rotate replaces the authorized address.
func (a *OracleAuthority) Rotate(address string) error {
	normalized, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	a.address.Store(&normalized)
	return nil
}

// Address returns the currently authorized address, or "" when none is set.
func (a *OracleAuthority) Address() string {
	if p := a.address.Load(); p != nil {
		return *p
	}
	return ""
}

// Authorize returns ErrInvalidOracle unless caller is the authorized address.
func (a *OracleAuthority) Authorize(caller string) error {
	want := a.Address()
	if want == "" {
		return fmt.Errorf("%w: no oracle configured", ErrInvalidOracle)
	}
	if !strings.EqualFold(want, strings.TrimSpace(caller)) {
		return fmt.Errorf("%w: %s", ErrInvalidOracle, caller)
	}
	return nil
}

func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", nil
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid oracle address %q", address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}
