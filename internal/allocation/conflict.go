package allocation

// Evaluate decides whether candidate may be held on resource given the
// bookings currently stored for it. excludeID skips the booking being
// re-validated so an update never conflicts with itself.
//
// The caller must read existing and persist the result inside one
// transaction that locks the resource; Evaluate itself is pure.
func Evaluate(resource ResourceSnapshot, candidate Range, existing []BookingSnapshot, excludeID string) ConflictDecision {
	if !candidate.Valid() {
		return reject(ReasonInvalidRange, nil, 0)
	}

	active := activeOn(resource, existing, excludeID)

	var overlapping []BookingSnapshot
	for _, b := range active {
		if Overlaps(b.Range, candidate) {
			overlapping = append(overlapping, b)
		}
	}
	peak := PeakOccupancy(overlapping, candidate)

	if resource.Capacity <= 0 {
		return reject(ReasonCapacityExceeded, ids(overlapping), peak)
	}
	if resource.Capacity == 1 {
		if len(overlapping) > 0 {
			return reject(ReasonOverlap, ids(overlapping), peak)
		}
		return accept(peak)
	}

	if peak+1 > resource.Capacity {
		return reject(ReasonCapacityExceeded, ids(overlapping), peak)
	}
	return accept(peak)
}

func ids(bookings []BookingSnapshot) []string {
	out := make([]string, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}
