package valueobject

import "fmt"

// MaxFraudScore is the highest score an oracle may submit.
const MaxFraudScore = 100

// FraudScore is an oracle-supplied likelihood of fraud in [0, 100].
type FraudScore struct {
	value uint8
}

// NewFraudScore validates and wraps a raw score.
func NewFraudScore(score int) (FraudScore, error) {
	if score < 0 || score > MaxFraudScore {
		return FraudScore{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidScoreRange, score, MaxFraudScore)
	}
	return FraudScore{value: uint8(score)}, nil
}

// Value returns the score as an int.
func (s FraudScore) Value() int {
	return int(s.value)
}

// Uint8 returns the score as stored on the ledger.
func (s FraudScore) Uint8() uint8 {
	return s.value
}
