package enums

import "fmt"

// MovementType distinguishes recorded income from expenses.
type MovementType string

const (
	MovementTypeIncome  MovementType = "income"
	MovementTypeExpense MovementType = "expense"
)

var validMovementTypes = []MovementType{
	MovementTypeIncome,
	MovementTypeExpense,
}

// String implements fmt.Stringer.
func (t MovementType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical movement enum.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
