package allocation

// EntityKind identifies what an archival request targets.
type EntityKind string

const (
	EntityGuest EntityKind = "guest"
	EntityRoom  EntityKind = "room"
	EntityBed   EntityKind = "bed"
)

// EntitySnapshot is the state of the entity to archive. Beds is only used for
// rooms and lists the room's beds that are not archived yet.
type EntitySnapshot struct {
	ID       string
	Archived bool
	Beds     []string
}

// CanArchive decides whether entity may be archived given the bookings linked
// to it (for a room: bookings on the room and on any of its beds).
func CanArchive(kind EntityKind, entity EntitySnapshot, related []BookingSnapshot) ArchivalDecision {
	if entity.Archived {
		return ArchivalDecision{Accepted: true, Noop: true}
	}

	var blocking []string
	for _, b := range related {
		if !b.Status.Active() || !linked(kind, entity, b) {
			continue
		}
		blocking = append(blocking, b.ID)
	}
	if len(blocking) > 0 {
		return ArchivalDecision{Reason: ReasonHasActiveBookings, Blocking: blocking}
	}

	d := ArchivalDecision{Accepted: true}
	if kind == EntityRoom {
		d.CascadeBeds = append([]string(nil), entity.Beds...)
	}
	return d
}

func linked(kind EntityKind, entity EntitySnapshot, b BookingSnapshot) bool {
	switch kind {
	case EntityGuest:
		return b.GuestID == entity.ID
	case EntityBed:
		return b.BedID != "" && b.BedID == entity.ID
	case EntityRoom:
		return b.On(Dorm(entity.ID, entity.Beds, false))
	}
	return false
}
