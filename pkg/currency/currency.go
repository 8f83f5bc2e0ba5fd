// Package currency parses and formats Colombian peso amounts. Pesos are
// whole numbers; the thousands separator is "." and the decimal mark ",".
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input like "1.234.567" to an integer peso
// amount. A decimal part after "," is discarded.
func ParseAmount(input string) (int64, error) {
	cleaned := strings.TrimSpace(input)
	if cleaned == "" {
		return 0, fmt.Errorf("amount is required")
	}

	cleaned = strings.ReplaceAll(cleaned, ".", "")
	if idx := strings.Index(cleaned, ","); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("amount %q is not a number", input)
	}

	dec, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", input)
	}
	return dec.Truncate(0).IntPart(), nil
}

// Format renders an integer peso amount with "." thousands separators.
func Format(amount int64) string {
	digits := fmt.Sprintf("%d", amount)
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := strings.Join(groups, ".")
	if negative {
		out = "-" + out
	}
	return out
}
