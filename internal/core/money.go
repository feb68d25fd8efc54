// Package core implements the transaction classification and cash-flow
// aggregation engine: pattern rules, the classifier, period aggregation,
// the cash-flow projection waterfall, and summary formatting.
//
// This file holds money parsing and formatting. Amounts are carried as
// signed int64 cents; parsing performs half-up rounding on the third
// decimal place so feed values like "12.345" round deterministically.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts a signed decimal string to cents. It accepts
// an optional leading sign, an optional dollar sign, and comma thousands
// separators, e.g. "-1,234.56" or "$45.9".
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
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
	if intPart == "0" && fracPart == "" {
		// "." alone or "" after stripping
		if s == "." || s == "" {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// USD renders the amount as "$X,XXX.XX", negatives as "-$X,XXX.XX".
func (m Money) USD() string {
	c := m.Cents
	neg := c < 0
	if neg {
		c = -c
	}
	out := "$" + groupThousands(c/100) + "." + pad2(c%100)
	if neg {
		return "-" + out
	}
	return out
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Min returns the algebraically smaller of the two amounts. The projection
// rule compares signed values directly, not magnitudes.
func Min(a, b Money) Money {
	if a.Cents < b.Cents {
		return a
	}
	return b
}

// DivideBy returns the amount split over n units, truncated to whole cents.
// n must be positive; callers guard zero-length windows at the interface.
func (m Money) DivideBy(n int) Money {
	return Money{Cents: m.Cents / int64(n)}
}

func groupThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
