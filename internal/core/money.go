// Package core provides amount parsing for the input boundary.
//
// Entry forms hand over raw text; everything here either returns a finite,
// non-negative number or a sentinel error so that invalid input never reaches
// the ledger.
package core

import (
	"math"
	"strconv"
	"strings"
)

// MaxAmount is the largest amount or budget accepted. Any realistic number
// of expenses at this size still sums to a finite float64.
const MaxAmount = 1e12

// ParseAmount converts user-entered text into an expense amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid amount; empty, negative, non-numeric, non-finite and input above
// MaxAmount is not.
//
// Examples:
//
//	ParseAmount("250")   -> 250, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	v, ok := parseNonNegative(s)
	if !ok {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseBudget validates a monthly budget entered as text.
func ParseBudget(s string) (float64, error) {
	v, ok := parseNonNegative(s)
	if !ok {
		return 0, ErrInvalidBudget
	}
	return v, nil
}

// FormatAmount renders a number in its shortest decimal form ("15000",
// "12.5"), which is also how the budget is persisted.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNonNegative(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > MaxAmount {
		return 0, false
	}
	return v, true
}
