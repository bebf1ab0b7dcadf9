// Package core holds the ledger's domain types and amount handling.
//
// This file contains functions for parsing monetary amounts from strings
// and formatting whole-shilling values for display.
package core

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ParseKesAmount converts a user-entered amount to whole Kenyan shillings.
//
// It tolerates thousands separators and an optional fractional part, which is
// rounded half-up. The result is always a strictly positive integer.
//
// Examples:
//
//	ParseKesAmount("10,000")    -> 10000, nil
//	ParseKesAmount("10000")     -> 10000, nil
//	ParseKesAmount("10,000.00") -> 10000, nil
//	ParseKesAmount("99.50")     -> 100, nil
func ParseKesAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Half-up rounding on the first fractional digit.
	if len(fracPart) > 0 && fracPart[0] >= '5' {
		iv++
	}
	if iv <= 0 {
		return 0, ErrInvalidAmount
	}
	return iv, nil
}

// FormatKes renders whole shillings with thousands separators, e.g. "KES 10,000".
func FormatKes(amount int64) string {
	return "KES " + FormatAmount(amount)
}

// FormatAmount renders the bare number with thousands separators.
func FormatAmount(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatDateTime renders a timestamp as "2006-01-02 15:04" in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
