// Package core holds the domain model: entities, input validation, the
// error taxonomy and decimal money handling.
//
// All monetary values are exact decimals. Binary floating point is never
// used for amounts or balances, so replaying long transaction histories
// cannot accumulate rounding drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive decimal amount from a string. It accepts
// both dot and comma decimal separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, Validationf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Validationf("bad amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, Validationf("amount must be positive")
	}
	return d, nil
}

// FormatAmount renders a decimal with two fraction digits for display and
// export rows. Stored values keep their full precision.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
