/*
Package inr formats rupee amounts with Indian digit grouping.

The Indian system groups the last three digits, then every two:
1234567.89 renders as 12,34,567.89 (twelve lakh, thirty-four thousand).
Used by the API responses and the CLI tables; amounts are carried as
decimal.Decimal everywhere else and only formatted at the edge.
*/
package inr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount with Indian digit grouping and two decimal
// places, e.g. 1234567.89 -> "12,34,567.89".
func Format(amount decimal.Decimal) string {
	return group(amount.StringFixed(2))
}

// FormatWhole renders an amount rounded to the nearest rupee with no
// fractional part, e.g. 1234567 -> "12,34,567".
func FormatWhole(amount decimal.Decimal) string {
	return group(amount.Round(0).StringFixed(0))
}

// WithSymbol prefixes the formatted amount with the rupee sign.
func WithSymbol(amount decimal.Decimal) string {
	return "₹" + Format(amount)
}

func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	// Last group of three, then groups of two from the right.
	var groups []string
	groups = append(groups, intPart[len(intPart)-3:])
	rest := intPart[:len(intPart)-3]
	for len(rest) > 2 {
		groups = append(groups, rest[len(rest)-2:])
		rest = rest[:len(rest)-2]
	}
	if rest != "" {
		groups = append(groups, rest)
	}

	var b strings.Builder
	b.WriteString(sign)
	for i := len(groups) - 1; i >= 0; i-- {
		b.WriteString(groups[i])
		if i > 0 {
			b.WriteByte(',')
		}
	}
	b.WriteString(fracPart)
	return b.String()
}
