package oracle

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrScoreOverflow is returned when a score does not fit in an int32.
var ErrScoreOverflow = errors.New("oracle: score out of representable range")

var (
	minScore = decimal.NewFromInt(math.MinInt32)
	maxScore = decimal.NewFromInt(math.MaxInt32)
)

// NormalizeScore rounds a scoring-model output (which may be a fractional
// percentage such as 78.5) half to even, the way the scoring API rounds, to
// the integer score that is signed and recorded. Range validation is left to
// the ledger.
func NormalizeScore(d decimal.Decimal) (int, error) {
	r := d.RoundBank(0)
	if r.LessThan(minScore) || r.GreaterThan(maxScore) {
		return 0, ErrScoreOverflow
	}
	return int(r.IntPart()), nil
}
