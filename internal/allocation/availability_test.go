package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeBeds(t *testing.T) {
	beds := []string{"a1", "a2", "a3"}
	existing := []BookingSnapshot{
		bedBooking("b1", "a1", "2025-10-15", "2025-10-18", StatusConfirmed),
		bedBooking("b2", "a2", "2025-10-17", "2025-10-19", StatusRequested),
		bedBooking("b3", "a3", "2025-10-15", "2025-10-18", StatusCancelled),
	}

	testCases := []struct {
		name      string
		candidate Range
		excludeID string
		expected  []string
	}{
		{name: "overlaps a1 only", candidate: stay("2025-10-15", "2025-10-17"), expected: []string{"a2", "a3"}},
		{name: "overlaps a1 and a2", candidate: stay("2025-10-16", "2025-10-18"), expected: []string{"a3"}},
		{name: "turnover day frees a1", candidate: stay("2025-10-18", "2025-10-20"), expected: []string{"a1", "a3"}},
		{name: "moving booking ignores itself", candidate: stay("2025-10-16", "2025-10-18"), excludeID: "b1", expected: []string{"a1", "a3"}},
		{name: "invalid range has no free bed", candidate: stay("2025-10-18", "2025-10-18"), expected: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FreeBeds(beds, tc.candidate, existing, tc.excludeID))
		})
	}
}

func TestAssignBed_DormOfFour(t *testing.T) {
	dorm := Dorm("dorm", []string{"d1", "d2", "d3", "d4"}, false)
	candidate := stay("2025-10-15", "2025-10-17")

	var existing []BookingSnapshot
	for i, want := range []string{"d1", "d2", "d3", "d4"} {
		bedID, d := AssignBed(dorm, candidate, existing, "")
		assert.True(t, d.Accepted, "stay %d", i+1)
		assert.Equal(t, want, bedID)
		existing = append(existing, bedBooking(want+"-b", bedID, "2025-10-15", "2025-10-17", StatusConfirmed))
	}

	bedID, d := AssignBed(dorm, candidate, existing, "")
	assert.False(t, d.Accepted)
	assert.Empty(t, bedID)
	assert.Equal(t, ReasonCapacityExceeded, d.Reason)
	assert.ElementsMatch(t, []string{"d1-b", "d2-b", "d3-b", "d4-b"}, d.Conflicts)
	assert.Equal(t, 4, d.PeakOccupancy)
}

func TestAssignBed_FragmentedStaysNeedOneBed(t *testing.T) {
	dorm := Dorm("dorm", []string{"d1", "d2"}, false)
	existing := []BookingSnapshot{
		bedBooking("b1", "d1", "2025-10-15", "2025-10-16", StatusConfirmed),
		bedBooking("b2", "d2", "2025-10-16", "2025-10-17", StatusConfirmed),
	}

	// Never more than one bed is taken per night, but no single bed is free
	// for both nights.
	_, d := AssignBed(dorm, stay("2025-10-15", "2025-10-17"), existing, "")
	assert.False(t, d.Accepted)
	assert.Equal(t, ReasonCapacityExceeded, d.Reason)
	assert.Equal(t, 1, d.PeakOccupancy)

	_, d = AssignBed(dorm, stay("2025-10-15", "2025-10-15"), existing, "")
	assert.Equal(t, ReasonInvalidRange, d.Reason)

	_, d = AssignBed(Dorm("empty", nil, false), stay("2025-10-15", "2025-10-16"), nil, "")
	assert.Equal(t, ReasonCapacityExceeded, d.Reason)
}

func TestVacancy(t *testing.T) {
	existing := []BookingSnapshot{
		roomBooking("r1", "private", "2025-10-15", "2025-10-17", StatusConfirmed),
		bedBooking("b1", "d1", "2025-10-15", "2025-10-16", StatusConfirmed),
		bedBooking("b2", "d2", "2025-10-16", "2025-10-17", StatusCheckedIn),
	}
	candidate := stay("2025-10-15", "2025-10-17")

	testCases := []struct {
		name     string
		resource ResourceSnapshot
		expected int
	}{
		{name: "private room of three", resource: Room("private", 3, false), expected: 2},
		{name: "private room of one", resource: Room("private", 1, false), expected: 0},
		{name: "dorm counts whole-stay beds", resource: Dorm("dorm", []string{"d1", "d2", "d3"}, false), expected: 1},
		{name: "dorm without beds", resource: Dorm("dorm", nil, false), expected: 0},
		{name: "free bed", resource: Bed("d3", false), expected: 1},
		{name: "archived room", resource: Room("private", 3, true), expected: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Vacancy(tc.resource, candidate, existing))
		})
	}

	assert.Zero(t, Vacancy(Room("private", 3, false), stay("2025-10-17", "2025-10-15"), existing))
}
