package allocation

import (
	"sort"
	"time"
)

// OccupancyStatus summarizes how full a resource is.
type OccupancyStatus string

const (
	OccupancyAvailable OccupancyStatus = "available"
	OccupancyPartial   OccupancyStatus = "partial"
	OccupancyFull      OccupancyStatus = "full"
)

// Occupancy is the live usage of a resource on a given day.
type Occupancy struct {
	Capacity  int             `json:"capacity"`
	Occupied  int             `json:"occupied"`
	Available int             `json:"available"`
	Rate      float64         `json:"rate"`
	Status    OccupancyStatus `json:"status"`
}

// OccupiedCount counts active bookings on the resource whose range contains instant.
func OccupiedCount(r ResourceSnapshot, bookings []BookingSnapshot, instant time.Time) int {
	n := 0
	for _, b := range activeOn(r, bookings, "") {
		if b.Range.Contains(instant) {
			n++
		}
	}
	return n
}

// AvailableCapacity returns the free units at instant. It is never negative,
// even when stored bookings already overbook the resource.
func AvailableCapacity(r ResourceSnapshot, bookings []BookingSnapshot, instant time.Time) int {
	occupied := min(OccupiedCount(r, bookings, instant), r.Capacity)
	return max(0, r.Capacity-occupied)
}

// OccupancyRate returns the percentage of capacity in use at instant.
func OccupancyRate(r ResourceSnapshot, bookings []BookingSnapshot, instant time.Time) float64 {
	if r.Capacity <= 0 {
		return 0
	}
	occupied := min(OccupiedCount(r, bookings, instant), r.Capacity)
	return float64(occupied) / float64(r.Capacity) * 100
}

// ComputeOccupancy gathers the occupancy figures of a resource at instant.
func ComputeOccupancy(r ResourceSnapshot, bookings []BookingSnapshot, instant time.Time) Occupancy {
	occupied := min(OccupiedCount(r, bookings, instant), max(r.Capacity, 0))
	o := Occupancy{
		Capacity:  r.Capacity,
		Occupied:  occupied,
		Available: AvailableCapacity(r, bookings, instant),
		Rate:      OccupancyRate(r, bookings, instant),
	}
	switch {
	case o.Occupied == 0:
		o.Status = OccupancyAvailable
	case o.Available > 0:
		o.Status = OccupancyPartial
	default:
		o.Status = OccupancyFull
	}
	return o
}

// PeakOccupancy returns the maximum number of bookings simultaneously active
// inside window. Occupancy only rises at a start boundary, so it is enough to
// check the window start and every booking start that falls inside it.
func PeakOccupancy(bookings []BookingSnapshot, window Range) int {
	points := boundaries(bookings, window)
	peak := 0
	for _, p := range points {
		n := 0
		for _, b := range bookings {
			if b.Range.Contains(p) {
				n++
			}
		}
		peak = max(peak, n)
	}
	return peak
}

func boundaries(bookings []BookingSnapshot, window Range) []time.Time {
	seen := map[time.Time]struct{}{window.Start: {}}
	points := []time.Time{window.Start}
	for _, b := range bookings {
		s := b.Range.Start
		if !window.Contains(s) {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		points = append(points, s)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	return points
}
