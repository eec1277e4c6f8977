// Package core provides money parsing and handling utilities.
//
// Amounts are decimal values with two fractional digits; the sign is carried
// by the transaction type, never by the amount itself.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount bounds accepted amounts to keep them representable in reports.
var maxAmount = decimal.New(1, 15)

// ParseAmount converts a decimal string to an amount with two fractional digits.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Returns an error for invalid
// formats, signed values, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount reports whether d is a positive, bounded amount.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() || d.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
