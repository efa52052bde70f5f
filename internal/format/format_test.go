package format

import (
	"strings"
	"testing"
)

func TestCurrency_Basic(t *testing.T) {
	got := Currency(1234567.891)
	if got != "₱1,234,567.89" {
		t.Errorf("Currency(1234567.891) = %q", got)
	}
}

func TestCurrency_ZeroAndNegativeNeverPanic(t *testing.T) {
	if got := Currency(0); got != "₱0.00" {
		t.Errorf("Currency(0) = %q", got)
	}
	if got := Currency(-42.5); got != "-₱42.50" {
		t.Errorf("Currency(-42.5) = %q", got)
	}
}

func TestCurrency_ShowSign(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{100, "+₱100.00"},
		{-100, "-₱100.00"},
		{0, "₱0.00"},
	}
	for _, tc := range cases {
		got := Currency(tc.in, CurrencyOptions{ShowSign: true})
		if got != tc.want {
			t.Errorf("Currency(%v, ShowSign) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCurrency_CustomSymbolAndCompact(t *testing.T) {
	got := Currency(2500000, CurrencyOptions{Symbol: "$", Compact: true})
	if got != "$2.50M" {
		t.Errorf("compact currency = %q", got)
	}
}

func TestCompactNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{950, "950"},
		{1200, "1.20K"},
		{1200000, "1.20M"},
		{3400000000, "3.40B"},
		{1.5e12, "1.50T"},
	}
	for _, tc := range cases {
		if got := CompactNumber(tc.in); got != tc.want {
			t.Errorf("CompactNumber(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNumber(t *testing.T) {
	if got := Number(9876543); got != "9,876,543" {
		t.Errorf("Number = %q", got)
	}
	if got := Number(-1000); got != "-1,000" {
		t.Errorf("Number(-1000) = %q", got)
	}
}

func TestDate(t *testing.T) {
	if got := Date("2021-03-15"); got != "Mar 15, 2021" {
		t.Errorf("Date ISO = %q", got)
	}
	// Garbage passes through untouched.
	if got := Date("not-a-date"); got != "not-a-date" {
		t.Errorf("Date passthrough = %q", got)
	}
	if got := Date("  "); got != "" {
		t.Errorf("Date blank = %q", got)
	}
}

func TestMatchesKeyword(t *testing.T) {
	title := "Medical Supplies for COVID-19 Prevention"
	if !MatchesKeyword("covid", title) {
		t.Error("case-insensitive substring should match")
	}
	if MatchesKeyword("influenza", title) {
		t.Error("unrelated needle should not match")
	}
	if !MatchesKeyword("", title) {
		t.Error("empty needle matches everything")
	}
	if !MatchesKeyword("dswd", "Office Chairs", "DSWD Region IV") {
		t.Error("should match any haystack field")
	}
}

func TestPaginate(t *testing.T) {
	p := Paginate(95, 3, 20)
	if p.Number != 3 || p.TotalPages != 5 || p.Offset != 40 || p.Limit != 20 {
		t.Errorf("Paginate(95,3,20) = %+v", p)
	}

	// Clamping in both directions.
	if p := Paginate(95, 99, 20); p.Number != 5 || p.Offset != 80 {
		t.Errorf("overflow clamp = %+v", p)
	}
	if p := Paginate(95, 0, 20); p.Number != 1 || p.Offset != 0 {
		t.Errorf("underflow clamp = %+v", p)
	}

	// Empty result sets still produce a valid single page.
	if p := Paginate(0, 1, 20); p.TotalPages != 1 || p.Offset != 0 {
		t.Errorf("empty set = %+v", p)
	}

	// Default page size.
	if p := Paginate(50, 1, 0); p.Limit != 20 {
		t.Errorf("default page size = %+v", p)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.3333); !strings.HasPrefix(got, "33.3") {
		t.Errorf("Percent = %q", got)
	}
}
