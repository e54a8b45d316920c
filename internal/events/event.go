package events

import (
	"time"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
)

// Routing keys published on the events exchange. Status changes use
// "booking.<status>".
const (
	TypeBookingCreated = "booking.created"
	TypeBookingUpdated = "booking.updated"
	TypeRoomArchived   = "room.archived"
	TypeBedArchived    = "bed.archived"
	TypeGuestArchived  = "guest.archived"
)

// Event describes a committed change to bookings or inventory.
type Event struct {
	Type       string            `json:"type"`
	BookingID  string            `json:"bookingId,omitempty"`
	GuestID    string            `json:"guestId,omitempty"`
	RoomID     string            `json:"roomId,omitempty"`
	BedID      string            `json:"bedId,omitempty"`
	Status     allocation.Status `json:"status,omitempty"`
	CheckIn    *time.Time        `json:"checkIn,omitempty"`
	CheckOut   *time.Time        `json:"checkOut,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// StatusType returns the routing key for a booking entering status.
func StatusType(status allocation.Status) string {
	return "booking." + string(status)
}

// BookingEvent builds an event of the given type from a booking row.
func BookingEvent(eventType string, b *model.Booking, at time.Time) Event {
	s := b.Snapshot()
	checkIn, checkOut := s.Range.Start, s.Range.End
	return Event{
		Type:       eventType,
		BookingID:  s.ID,
		GuestID:    s.GuestID,
		RoomID:     s.RoomID,
		BedID:      s.BedID,
		Status:     s.Status,
		CheckIn:    &checkIn,
		CheckOut:   &checkOut,
		OccurredAt: at,
	}
}
