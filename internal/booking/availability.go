package booking

import (
	"context"
	"fmt"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
)

// RoomAvailability tells how many more stays over a date range a room can take.
type RoomAvailability struct {
	RoomID   string         `json:"roomId"`
	Name     string         `json:"name"`
	Mode     model.RoomMode `json:"mode"`
	Capacity int            `json:"capacity"`
	Vacancy  int            `json:"vacancy"`
	// FreeBeds lists, for a dorm, the beds free for the whole range.
	FreeBeds []model.Bed `json:"freeBeds,omitempty"`
}

// RoomAvailability reports the vacancy of one room over stay. It is a read
// without locks: a booking made from it is still checked when it is admitted.
func (s *Service) RoomAvailability(ctx context.Context, roomID string, stay allocation.Range) (*RoomAvailability, error) {
	if !stay.Valid() {
		return nil, rejected(allocation.ReasonInvalidRange, nil)
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	active, err := s.store.ActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	a := availability(room, stay, model.Snapshots(active))
	return &a, nil
}

// AvailableBeds returns the beds of a dorm room that are free for the whole of stay.
func (s *Service) AvailableBeds(ctx context.Context, roomID string, stay allocation.Range) ([]model.Bed, error) {
	a, err := s.RoomAvailability(ctx, roomID, stay)
	if err != nil {
		return nil, err
	}
	if a.Mode != model.RoomModeDorm {
		return nil, invalid("room %s has no beds", roomID)
	}
	if a.FreeBeds == nil {
		return []model.Bed{}, nil
	}
	return a.FreeBeds, nil
}

// AvailableRooms lists the rooms, archived ones excluded, that can take at
// least one more stay over stay.
func (s *Service) AvailableRooms(ctx context.Context, stay allocation.Range) ([]RoomAvailability, error) {
	if !stay.Valid() {
		return nil, rejected(allocation.ReasonInvalidRange, nil)
	}
	rooms, err := s.store.ListRooms(ctx, false)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	bookings := model.Snapshots(active)

	out := make([]RoomAvailability, 0, len(rooms))
	for i := range rooms {
		if a := availability(&rooms[i], stay, bookings); a.Vacancy > 0 {
			out = append(out, a)
		}
	}
	return out, nil
}

func availability(room *model.Room, stay allocation.Range, bookings []allocation.BookingSnapshot) RoomAvailability {
	snapshot := roomSnapshot(room)
	a := RoomAvailability{
		RoomID:   room.ID,
		Name:     room.Name,
		Mode:     room.Mode,
		Capacity: snapshot.Capacity,
		Vacancy:  allocation.Vacancy(snapshot, stay, bookings),
	}
	if room.Mode != model.RoomModeDorm || room.Archived {
		return a
	}

	free := make(map[string]bool)
	for _, id := range allocation.FreeBeds(snapshot.Beds, stay, bookings, "") {
		free[id] = true
	}
	for _, bed := range room.Beds {
		if free[bed.ID] {
			a.FreeBeds = append(a.FreeBeds, bed)
		}
	}
	return a
}
