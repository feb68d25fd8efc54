package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.34", 1234, true},
		{"12,345.67", 1234567, true},
		{"$45.9", 4590, true},
		{"-1,234.56", -123456, true},
		{"-$50", -5000, true},
		{"0", 0, true},
		{"12.345", 1234, true}, // rounds down
		{"12.346", 1235, true}, // half-up on third decimal
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseAmountToCents(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("ParseAmountToCents(%q) expected error", tc.in)
			}
			continue
		}
		if got != tc.cents {
			t.Fatalf("ParseAmountToCents(%q) = %d, want %d", tc.in, got, tc.cents)
		}
	}
}

func TestMoneyUSD(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{123456, "$1,234.56"},
		{-123456, "-$1,234.56"},
		{100000000, "$1,000,000.00"},
		{-50, "-$0.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).USD(); got != tc.want {
			t.Fatalf("Money{%d}.USD() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMin(t *testing.T) {
	// Signed comparison: for negative spend the more negative value wins.
	if got := Min(Money{Cents: -5000}, Money{Cents: -2000}); got.Cents != -5000 {
		t.Fatalf("Min(-50, -20) = %d, want -5000", got.Cents)
	}
	if got := Min(Money{Cents: 100}, Money{Cents: -1}); got.Cents != -1 {
		t.Fatalf("Min(1.00, -0.01) = %d, want -1", got.Cents)
	}
}

func TestMoneyDivideBy(t *testing.T) {
	if got := (Money{Cents: -15000}).DivideBy(6); got.Cents != -2500 {
		t.Fatalf("DivideBy = %d, want -2500", got.Cents)
	}
}
