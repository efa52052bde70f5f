// Package format provides pure presentation helpers shared by the view layer
// and the session stores: currency/number/date formatting, keyword matching,
// and pagination math. Nothing in here holds state or touches I/O.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CurrencyOptions controls Currency output.
type CurrencyOptions struct {
	Symbol   string // currency symbol prefix; defaults to "₱"
	ShowSign bool   // force an explicit "+" on positive values
	Compact  bool   // abbreviate large magnitudes (1.2M, 3.4B)
}

// Currency renders an amount with grouped thousands and two decimals.
// Zero and negative inputs are always sign-correct and never panic.
func Currency(v float64, opts ...CurrencyOptions) string {
	opt := CurrencyOptions{}
	if len(opts) > 0 {
		opt = opts[0]
	}
	symbol := opt.Symbol
	if symbol == "" {
		symbol = "₱"
	}

	sign := ""
	abs := v
	switch {
	case v < 0 || math.Signbit(v):
		sign = "-"
		abs = -v
	case opt.ShowSign && v > 0:
		sign = "+"
	}

	if opt.Compact {
		return sign + symbol + CompactNumber(abs)
	}
	return sign + symbol + group(fmt.Sprintf("%.2f", abs))
}

// CompactNumber abbreviates a magnitude: 950 -> "950", 1200000 -> "1.20M".
func CompactNumber(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	}
}

// Number renders an integer with grouped thousands.
func Number(n int64) string {
	if n < 0 {
		return "-" + group(fmt.Sprintf("%d", -n))
	}
	return group(fmt.Sprintf("%d", n))
}

// Percent renders a ratio as a percentage with one decimal.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// group inserts comma separators into the integer part of a numeric string.
func group(s string) string {
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return intPart + frac
	}
	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sb.String() + frac
}

// dateLayouts are the input layouts Date accepts, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Date parses a raw date string leniently and renders it as "Jan 2, 2006".
// Unparseable input is returned unchanged rather than erroring; award dates
// in real exports are too messy to make this a failure path.
func Date(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return raw
}

// MatchesKeyword reports whether any of the haystack fields contains the
// needle, case-insensitively. An empty needle matches everything.
func MatchesKeyword(needle string, haystack ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// Page describes one slice of a paginated result set.
type Page struct {
	Number     int // 1-based page number, clamped into range
	TotalPages int
	Offset     int // row offset of the first item on the page
	Limit      int // page size
}

// Paginate computes slice bounds for page number `page` (1-based) over a
// result set of `total` rows. Out-of-range pages clamp to the nearest valid
// page; a non-positive page size defaults to 20.
func Paginate(total, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = 20
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Page{
		Number:     page,
		TotalPages: totalPages,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	}
}
