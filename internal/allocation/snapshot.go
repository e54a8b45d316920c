package allocation

// Status is the lifecycle status of a booking.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// ActiveStatuses are the statuses that hold capacity on a resource.
var ActiveStatuses = []Status{StatusRequested, StatusConfirmed, StatusCheckedIn}

// Active reports whether a booking in this status participates in conflict and occupancy checks.
func (s Status) Active() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// Known reports whether s is one of the defined statuses.
func (s Status) Known() bool {
	return s.Active() || s.Terminal()
}

// ResourceKind identifies the type of a bookable unit.
type ResourceKind string

const (
	KindRoom ResourceKind = "room"
	KindBed  ResourceKind = "bed"
)

// ResourceSnapshot is the state of a room or bed as read by the caller.
// A dorm room aggregates its beds: Beds lists the non-archived bed ids and
// Capacity equals len(Beds).
type ResourceSnapshot struct {
	Kind     ResourceKind
	ID       string
	Capacity int
	Archived bool
	Beds     []string
}

// BedCapacity is the fixed capacity of every bed.
const BedCapacity = 1

// Bed returns the snapshot of a bed.
func Bed(id string, archived bool) ResourceSnapshot {
	return ResourceSnapshot{Kind: KindBed, ID: id, Capacity: BedCapacity, Archived: archived}
}

// Room returns the snapshot of a directly bookable room.
func Room(id string, capacity int, archived bool) ResourceSnapshot {
	return ResourceSnapshot{Kind: KindRoom, ID: id, Capacity: capacity, Archived: archived}
}

// Dorm returns the aggregate snapshot of a dorm room over its beds.
func Dorm(id string, bedIDs []string, archived bool) ResourceSnapshot {
	return ResourceSnapshot{Kind: KindRoom, ID: id, Capacity: len(bedIDs), Archived: archived, Beds: bedIDs}
}

// BookingSnapshot is the subset of a booking the allocation rules reason about.
// Exactly one of RoomID and BedID is set.
type BookingSnapshot struct {
	ID      string
	GuestID string
	RoomID  string
	BedID   string
	Range   Range
	Status  Status
}

// On reports whether the booking is attached to the given resource.
func (b BookingSnapshot) On(r ResourceSnapshot) bool {
	switch r.Kind {
	case KindBed:
		return b.BedID != "" && b.BedID == r.ID
	case KindRoom:
		if b.RoomID != "" && b.RoomID == r.ID {
			return true
		}
		for _, id := range r.Beds {
			if b.BedID != "" && b.BedID == id {
				return true
			}
		}
	}
	return false
}

func activeOn(r ResourceSnapshot, bookings []BookingSnapshot, excludeID string) []BookingSnapshot {
	out := make([]BookingSnapshot, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.Active() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		if !b.On(r) {
			continue
		}
		out = append(out, b)
	}
	return out
}
