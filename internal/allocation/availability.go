package allocation

// FreeBeds returns the beds, in the order given, that can hold candidate
// without overlapping an active booking. excludeID skips the booking being moved.
func FreeBeds(bedIDs []string, candidate Range, existing []BookingSnapshot, excludeID string) []string {
	if !candidate.Valid() {
		return nil
	}
	var free []string
	for _, id := range bedIDs {
		if Evaluate(Bed(id, false), candidate, existing, excludeID).Accepted {
			free = append(free, id)
		}
	}
	return free
}

// AssignBed picks the first bed of dorm that is free for the whole of
// candidate. When no bed is free the decision is CapacityExceeded and lists
// the active bookings on the dorm's beds that overlap the stay.
func AssignBed(dorm ResourceSnapshot, candidate Range, existing []BookingSnapshot, excludeID string) (string, ConflictDecision) {
	if !candidate.Valid() {
		return "", reject(ReasonInvalidRange, nil, 0)
	}

	var overlapping []BookingSnapshot
	for _, b := range activeOn(dorm, existing, excludeID) {
		if Overlaps(b.Range, candidate) {
			overlapping = append(overlapping, b)
		}
	}
	peak := PeakOccupancy(overlapping, candidate)

	free := FreeBeds(dorm.Beds, candidate, existing, excludeID)
	if len(free) == 0 {
		return "", reject(ReasonCapacityExceeded, ids(overlapping), peak)
	}
	return free[0], accept(peak)
}

// Vacancy returns how many more stays covering candidate the resource can
// admit. For a dorm it is the number of beds free for the whole range, which
// can be lower than capacity minus peak when stays are spread across beds.
func Vacancy(r ResourceSnapshot, candidate Range, existing []BookingSnapshot) int {
	if !candidate.Valid() || r.Archived {
		return 0
	}
	if r.Kind == KindRoom && len(r.Beds) > 0 {
		return len(FreeBeds(r.Beds, candidate, existing, ""))
	}

	var overlapping []BookingSnapshot
	for _, b := range activeOn(r, existing, "") {
		if Overlaps(b.Range, candidate) {
			overlapping = append(overlapping, b)
		}
	}
	return max(0, r.Capacity-PeakOccupancy(overlapping, candidate))
}
