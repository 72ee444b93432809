package records

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the unambiguous date format used on the wire and in exports.
const DateLayout = "2006-01-02"

// ErrMalformedDate is returned when a range boundary cannot be parsed.
var ErrMalformedDate = errors.New("malformed date")

// accepted layouts, most specific first
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayout,
	"2006-01",
}

// ParseDate parses a range boundary coming from the UI. Input that matches
// none of the accepted layouts is rejected; no guessing is attempted.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// ParseRange parses both boundaries. It does not reject start > end; such a
// range is valid input that filters to nothing.
func ParseRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end: %w", err)
	}
	return DateRange{Start: s, End: e}, nil
}
