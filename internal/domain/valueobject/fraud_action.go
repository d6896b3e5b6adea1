package valueobject

import "fmt"

// BlockThreshold is the lowest score that blocks a transaction.
const BlockThreshold = 80

// FraudAction is the enforcement decision recorded for a transaction. Its
// ordinal is the persisted representation and must never be renumbered.
type FraudAction struct {
	name    string
	ordinal uint8
}

var (
	ActionApproved = FraudAction{ordinal: 0, name: "Approved"}
	// ActionFlagged is part of the persisted action space but no score maps to it.
	ActionFlagged = FraudAction{ordinal: 1, name: "Flagged"}
	ActionBlocked = FraudAction{ordinal: 2, name: "Blocked"}
)

// ActionFromScore applies the threshold policy: Blocked at or above
// BlockThreshold, Approved below it.
func ActionFromScore(score FraudScore) FraudAction {
	if score.Value() >= BlockThreshold {
		return ActionBlocked
	}
	return ActionApproved
}

// FraudActionFromOrdinal reconstructs a FraudAction from its persisted ordinal.
func FraudActionFromOrdinal(ordinal uint8) (FraudAction, error) {
	switch ordinal {
	case ActionApproved.ordinal:
		return ActionApproved, nil
	case ActionFlagged.ordinal:
		return ActionFlagged, nil
	case ActionBlocked.ordinal:
		return ActionBlocked, nil
	default:
		return FraudAction{}, fmt.Errorf("invalid fraud action ordinal: %d", ordinal)
	}
}

// FraudActionFromString reconstructs a FraudAction from its name.
func FraudActionFromString(s string) (FraudAction, error) {
	switch s {
	case ActionApproved.name:
		return ActionApproved, nil
	case ActionFlagged.name:
		return ActionFlagged, nil
	case ActionBlocked.name:
		return ActionBlocked, nil
	default:
		return FraudAction{}, fmt.Errorf("invalid fraud action: %s", s)
	}
}

// String returns the string representation.
func (a FraudAction) String() string {
	return a.name
}

// Ordinal returns the persisted ordinal.
func (a FraudAction) Ordinal() uint8 {
	return a.ordinal
}

// IsZero returns true if the FraudAction has not been set.
func (a FraudAction) IsZero() bool {
	return a.name == ""
}

// Equal checks equality with another FraudAction.
func (a FraudAction) Equal(other FraudAction) bool {
	return a == other
}
