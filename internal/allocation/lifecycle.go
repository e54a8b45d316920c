package allocation

var transitions = map[Status][]Status{
	StatusRequested: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

// NextLegalStates returns the statuses a booking may move to from current.
// Terminal statuses return an empty set.
func NextLegalStates(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// InitialStatusAllowed reports whether a booking may be created in s.
func InitialStatusAllowed(s Status) bool {
	return s == StatusRequested || s == StatusConfirmed
}

// CheckTransition validates moving a booking from one status to another.
// Cancelling a cancelled booking is accepted as a no-op.
func CheckTransition(from, to Status) TransitionDecision {
	if from == StatusCancelled && to == StatusCancelled {
		return TransitionDecision{Accepted: true, Noop: true}
	}
	for _, s := range transitions[from] {
		if s == to {
			return TransitionDecision{Accepted: true, RecheckConflicts: RequiresConflictCheck(from, to)}
		}
	}
	return TransitionDecision{Reason: ReasonInvalidTransition}
}

// RequiresConflictCheck reports whether availability must be re-evaluated
// before the transition is persisted. Only confirming an inquiry does; later
// steps already hold the resource.
func RequiresConflictCheck(from, to Status) bool {
	return from == StatusRequested && to == StatusConfirmed
}

// CheckReschedule validates a date or resource change on a booking in status.
// Accepted changes must always be re-evaluated, excluding the booking itself.
func CheckReschedule(status Status) TransitionDecision {
	if !status.Active() {
		return TransitionDecision{Reason: ReasonInvalidTransition}
	}
	return TransitionDecision{Accepted: true, RecheckConflicts: true}
}

// CanArchiveBooking reports whether a booking in status may be soft-deleted.
func CanArchiveBooking(status Status) bool {
	return status.Terminal()
}
