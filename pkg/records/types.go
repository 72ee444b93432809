// Package records holds the metric table the dashboard is built from and the
// pure functions that slice and total it.
package records

import "time"

// Record is one month of marketing metrics.
type Record struct {
	Date        time.Time `json:"date"`
	Revenue     int64     `json:"revenue"`
	Users       int64     `json:"users"`
	Conversions int64     `json:"conversions"`
}

// Month returns the first instant of the given month in UTC, the granularity
// records are keyed on.
func Month(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive [Start, End] bound.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether Start <= End. An invalid range filters to nothing.
func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

// Contains reports whether t lies inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Equal reports whether both bounds denote the same instants.
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// String renders the range the way export and log lines print it.
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + " to " + r.End.Format(DateLayout)
}
