package enums

import "fmt"

// DebtType identifies which bucket a debt lives in: money the user owes or
// money owed to the user. The values double as the JSON keys of the persisted
// document.
type DebtType string

const (
	DebtTypeOwedByMe DebtType = "owed-by-me"
	DebtTypeOwedToMe DebtType = "owed-to-me"
)

var validDebtTypes = []DebtType{
	DebtTypeOwedByMe,
	DebtTypeOwedToMe,
}

// String implements fmt.Stringer.
func (t DebtType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical debt enum.
func (t DebtType) IsValid() bool {
	for _, candidate := range validDebtTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseDebtType converts raw input into DebtType.
func ParseDebtType(value string) (DebtType, error) {
	for _, candidate := range validDebtTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid debt type %q", value)
}

// MovementType returns the movement kind a payment on this debt produces:
// paying my own debt is an expense, collecting a debt owed to me is income.
func (t DebtType) MovementType() MovementType {
	if t == DebtTypeOwedByMe {
		return MovementTypeExpense
	}
	return MovementTypeIncome
}
