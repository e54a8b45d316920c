package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"hostel-allocation-backend/internal/allocation"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

var spaceRe = regexp.MustCompile(`\s+`)

// Date parses a calendar date sent by a client and returns it normalized to
// midnight UTC. Full timestamps are converted to loc first, so an evening
// arrival in the hostel's timezone stays on the hostel's calendar day.
func Date(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return allocation.Day(t), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(s, " ", "T", 1)); err == nil {
		return allocation.Day(t.In(loc)), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", raw)
}

// OptionalDate is Date for optional query parameters: an empty string yields
// the zero time and no error.
func OptionalDate(raw string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return Date(raw, loc)
}
