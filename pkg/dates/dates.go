// Package dates coerces the heterogeneous date strings seen across the
// upstream ticketing API into the canonical YYYY-MM-DD wire form.
//
// Normalize is best-effort and never fails: a string that matches none of
// the known shapes is returned unchanged so the caller can surface it
// as-is instead of crashing a purchase flow over a display value.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ISO is the canonical wire layout for dates.
const ISO = "2006-01-02"

// Order disambiguates slash-separated numeric dates. "03/04/2025" is
// March 4th under MonthFirst and April 3rd under DayFirst; the two shapes
// are indistinguishable by pattern, so callers must say which locale the
// input came from.
type Order int

const (
	// MonthFirst reads slash dates as MM/DD/YYYY.
	MonthFirst Order = iota
	// DayFirst reads slash dates as DD/MM/YYYY.
	DayFirst
)

var (
	isoRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashRe     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashRe      = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	yearFirstRe = regexp.MustCompile(`^(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})$`)
	timeOnlyRe  = regexp.MustCompile(`^(\d{2}:\d{2})(:\d{2})?$`)
)

// genericLayouts are tried, in order, by the final parse attempt.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Normalize coerces input to YYYY-MM-DD.
//
// Attempts, in order:
//  1. already canonical: returned unchanged
//  2. slash-separated numeric date, read per the order hint, with the
//     month and day ranges validated
//  3. MM-DD-YYYY
//  4. YYYY/MM/DD with any of "/", ".", "-" as separator
//  5. a generic date-time parse, reformatted
//
// If every attempt fails the input is returned unchanged.
func Normalize(input string, order Order) string {
	if input == "" {
		return input
	}
	if isoRe.MatchString(input) {
		return input
	}

	if m := slashRe.FindStringSubmatch(input); m != nil {
		first, second, year := m[1], m[2], m[3]
		month, day := first, second
		if order == DayFirst {
			month, day = second, first
		}
		if iso, ok := assemble(year, month, day); ok {
			return iso
		}
	}

	if m := dashRe.FindStringSubmatch(input); m != nil {
		if iso, ok := assemble(m[3], m[1], m[2]); ok {
			return iso
		}
	}

	if m := yearFirstRe.FindStringSubmatch(input); m != nil {
		if iso, ok := assemble(m[1], m[2], m[3]); ok {
			return iso
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.Format(ISO)
		}
	}

	return input
}

// assemble zero-pads and range-checks the parts of a numeric date.
// The day check is the coarse 1..31 the upstream contract tolerates;
// impossible dates like 02/31 are left for the server to reject.
func assemble(year, month, day string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", year, m, d), true
}

// FormatDisplayDate renders a date or date-time string for presentation.
// Time-only values pass through untouched (with seconds truncated) and
// anything unparsable is returned unchanged.
func FormatDisplayDate(input string) string {
	if input == "" {
		return input
	}
	if m := timeOnlyRe.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if t, ok := parseAny(input); ok {
		return t.Format("02 Jan 2006")
	}
	return input
}

// FormatDisplayTime renders the time-of-day portion of a date-time string.
// Already-time-only inputs pass through with seconds truncated.
func FormatDisplayTime(input string) string {
	if input == "" {
		return input
	}
	if m := timeOnlyRe.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if t, ok := parseAny(input); ok {
		return t.Format("15:04")
	}
	return input
}

func parseAny(input string) (time.Time, bool) {
	layouts := append([]string{ISO}, genericLayouts...)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// JourneyStarted reports whether a departure time lies in the past.
// Unparsable departure times are treated as not started so a malformed
// record never locks a passenger out of cancellation.
func JourneyStarted(departureTime string, now time.Time) bool {
	t, ok := parseAny(departureTime)
	if !ok {
		return false
	}
	return now.After(t)
}
