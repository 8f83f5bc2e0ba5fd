package validators

import (
	"net/http"
	"strings"
	"time"

	"github.com/juanestebanprog/finanzas-backend/pkg/currency"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
)

// ParseQueryAmount reads a peso amount from the query string. Formatted
// input ("1.234.567") is accepted the same way the boundary accepts it in
// request bodies. Returns (defaultVal, false) when the key is absent.
func ParseQueryAmount(r *http.Request, key string) (int64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, false, nil
	}
	value, err := currency.ParseAmount(raw)
	if err != nil {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be an amount").WithDetails(map[string]any{"field": key})
	}
	if value < 0 {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must not be negative").WithDetails(map[string]any{"field": key})
	}
	return value, true, nil
}

// ParseDay validates a required YYYY-MM-DD value from the query or path.
func ParseDay(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "date is required").WithDetails(map[string]any{"field": field})
	}
	if _, err := time.Parse("2006-01-02", trimmed); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": field})
	}
	return trimmed, nil
}
