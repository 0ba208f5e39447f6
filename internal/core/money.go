// Package core provides the ledger domain: transactions, kinds, amount
// parsing and the summary calculator.
//
// This file contains the amount parser and the single display formatting rule.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a stored amount to a decimal.
//
// Only the dot separator is accepted, plus the exponent form SQLite uses for
// large REAL values (1e+21). Empty input, comma decimals and anything that is
// not a finite number return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 0, ErrInvalidAmount
//	ParseAmount("abc") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParseInputAmount reads an amount typed into the entry form, where a single
// comma decimal separator (12,34) is accepted alongside the dot.
func ParseInputAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return ParseAmount(s)
}

// FormatBRL renders an amount as "R$ 1234.50" with two decimals.
func FormatBRL(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-R$ " + d.Abs().StringFixed(2)
	}
	return "R$ " + d.StringFixed(2)
}
