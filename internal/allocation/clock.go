package allocation

import "time"

// Clock supplies the current time. Occupancy queries use it for "today".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the hostel's timezone.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the configured location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the current hostel date normalized for range comparisons.
func Today(c Clock) time.Time {
	return Day(c.Now())
}
