// Package lifecycle holds the pure complaint rules: status derivation,
// deadline arithmetic, filtering, sorting and pagination. Nothing here
// performs I/O; malformed data degrades to documented fallbacks.
package lifecycle

import (
	"strings"
	"time"
)

// ISODate is the storage layout of every date column.
const ISODate = "2006-01-02"

// DisplayDate is the dd/mm/yyyy layout used in reports.
const DisplayDate = "02/01/2006"

// ParseDate parses a stored date. Nil, blank and malformed values report false.
// Timestamps are accepted and truncated to their calendar date.
func ParseDate(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	return ParseDateString(*s)
}

// ParseDateString is ParseDate for a plain string.
func ParseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), true
	}
	if len(s) > len(ISODate) && s[len(ISODate)] == 'T' {
		if t, err := time.Parse(ISODate, s[:len(ISODate)]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOf drops the time of day, keeping t's own calendar date.
// Results are UTC midnights so that day arithmetic never crosses a DST shift.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar date as a UTC midnight.
func Today() time.Time {
	return DateOf(time.Now())
}

// FormatISO renders a date in the storage layout.
func FormatISO(t time.Time) string {
	return t.Format(ISODate)
}

// FormatDisplay renders a stored date as dd/mm/yyyy. Malformed input is returned as-is.
func FormatDisplay(s string) string {
	t, ok := ParseDateString(s)
	if !ok {
		return s
	}
	return t.Format(DisplayDate)
}
