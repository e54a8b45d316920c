package allocation

import "time"

// Range is a half-open stay interval [Start, End) at day granularity.
type Range struct {
	Start time.Time `json:"checkIn"`
	End   time.Time `json:"checkOut"`
}

// NewRange builds a Range from check-in and check-out, normalizing both to dates.
func NewRange(checkIn, checkOut time.Time) Range {
	return Range{Start: Day(checkIn), End: Day(checkOut)}
}

// Day truncates t to midnight UTC of the calendar day it falls on in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether the range has a strictly positive length.
func (r Range) Valid() bool {
	return r.End.After(r.Start)
}

// Contains reports whether instant falls on a night covered by the range.
func (r Range) Contains(instant time.Time) bool {
	d := Day(instant)
	return !d.Before(r.Start) && d.Before(r.End)
}

// Nights returns the number of nights covered by the range.
func (r Range) Nights() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Overlaps reports whether a and b share at least one night.
// Back-to-back stays (a.End == b.Start) do not overlap.
func Overlaps(a, b Range) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
