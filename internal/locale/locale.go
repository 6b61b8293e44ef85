// Package locale parses and formats currency amounts and dates across the
// PT-PT and English conventions the CSV surface must accept. All functions
// are pure and total: failures are explicit errors, never silent zeroes.
package locale

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/gestor/internal/calendar"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Accepted date layouts, most specific first. ISO wins over the two
// day-first forms so "2024-01-02" is never read as day 2024.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

var (
	// English grouping: 1,234.56 — comma thousands, dot decimal.
	enGroupedRe = regexp.MustCompile(`^[\d,]+\.\d+$`)
	// PT-PT grouping: 1.234,56 — dot/space thousands, comma decimal.
	ptGroupedRe = regexp.MustCompile(`^[\d\s.]+,\d+$`)
)

// ParseDate reads a date in ISO (YYYY-MM-DD), DD/MM/YYYY or DD-MM-YYYY
// form. Calendar validity is enforced, so 2024-04-31 fails even though it
// matches the shape. The result is normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return calendar.Normalize(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders a date in the PT-PT export form DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatISODate renders a date in the persistence form YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseAmount reads a currency-style number in either locale. The rules
// apply in priority order, which is what disambiguates strings like
// "1.234" (thousands-grouped 1234, by rule 2) from "1234.56":
//
//  1. comma-grouped with a dot decimal -> English
//  2. dot/space-grouped with a comma decimal -> PT-PT
//  3. exactly one comma and no dot -> comma is the decimal separator
//  4. anything else that is plainly numeric -> parsed directly
//
// Everything else is an error.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	switch {
	case enGroupedRe.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case ptGroupedRe.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ",") == 1 && !strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders an amount for CSV export in PT-PT convention:
// two fixed decimals, space as thousands separator, comma as decimal point.
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// FormatPlainAmount renders an amount for JSON payloads: two fixed
// decimals, no grouping, dot decimal point.
func FormatPlainAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
