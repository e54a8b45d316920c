package allocation

// Reason names why a request was rejected.
type Reason string

const (
	ReasonInvalidRange      Reason = "invalid_range"
	ReasonOverlap           Reason = "overlap"
	ReasonCapacityExceeded  Reason = "capacity_exceeded"
	ReasonInvalidTransition Reason = "invalid_transition"
	ReasonHasActiveBookings Reason = "has_active_bookings"
)

// Message returns a human-readable description of the reason.
func (r Reason) Message() string {
	switch r {
	case ReasonInvalidRange:
		return "check-out must be after check-in"
	case ReasonOverlap:
		return "resource is already occupied for part of the requested stay"
	case ReasonCapacityExceeded:
		return "resource would exceed its capacity during the requested stay"
	case ReasonInvalidTransition:
		return "status change is not allowed from the current status"
	case ReasonHasActiveBookings:
		return "entity still has active bookings"
	}
	return string(r)
}

// ConflictDecision is the outcome of evaluating a candidate stay.
type ConflictDecision struct {
	Accepted bool
	Reason   Reason
	// Conflicts lists the ids of the active bookings the candidate collides with.
	Conflicts []string
	// PeakOccupancy is the highest number of existing active bookings
	// observed at any boundary inside the candidate range.
	PeakOccupancy int
}

func accept(peak int) ConflictDecision {
	return ConflictDecision{Accepted: true, PeakOccupancy: peak}
}

func reject(reason Reason, conflicts []string, peak int) ConflictDecision {
	return ConflictDecision{Reason: reason, Conflicts: conflicts, PeakOccupancy: peak}
}

// TransitionDecision is the outcome of checking a status change.
type TransitionDecision struct {
	Accepted bool
	Reason   Reason
	// Noop is set when the change leaves the booking untouched (repeated cancel).
	Noop bool
	// RecheckConflicts is set when the caller must re-run Evaluate before persisting.
	RecheckConflicts bool
}

// ArchivalDecision is the outcome of an archival request.
type ArchivalDecision struct {
	Accepted bool
	Reason   Reason
	// Blocking lists the active bookings preventing archival.
	Blocking []string
	// CascadeBeds lists the bed ids a room archival must also archive.
	CascadeBeds []string
	// Noop is set when the entity was already archived.
	Noop bool
}
