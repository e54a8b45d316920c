package booking

import (
	"context"
	"fmt"
	"time"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
)

// ResourceOccupancy is the occupancy of one bookable resource on one day.
type ResourceOccupancy struct {
	Kind   allocation.ResourceKind `json:"kind"`
	ID     string                  `json:"id"`
	Name   string                  `json:"name"`
	RoomID string                  `json:"roomId,omitempty"`
	Day    time.Time               `json:"day"`
	allocation.Occupancy
}

// Occupancy reports how full a room or bed is on day. A zero day means today
// in the hostel's timezone. Dorm rooms report the aggregate of their beds.
func (s *Service) Occupancy(ctx context.Context, kind allocation.ResourceKind, id string, day time.Time) (*ResourceOccupancy, error) {
	day = s.day(day)
	active, err := s.store.ActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	bookings := model.Snapshots(active)

	switch kind {
	case allocation.KindBed:
		bed, err := s.store.GetBed(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("bed %s: %w", id, err)
		}
		r := allocation.Bed(bed.ID, bed.Archived)
		return &ResourceOccupancy{
			Kind: allocation.KindBed, ID: bed.ID, Name: bed.Name, RoomID: bed.RoomID, Day: day,
			Occupancy: allocation.ComputeOccupancy(r, bookings, day),
		}, nil
	case allocation.KindRoom:
		room, err := s.store.GetRoom(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", id, err)
		}
		return &ResourceOccupancy{
			Kind: allocation.KindRoom, ID: room.ID, Name: room.Name, Day: day,
			Occupancy: allocation.ComputeOccupancy(roomSnapshot(room), bookings, day),
		}, nil
	}
	return nil, invalid("unknown resource kind %q", kind)
}

// OccupancyReport lists the occupancy of every room and bed that is not
// archived. Dorm rooms are followed by their beds.
func (s *Service) OccupancyReport(ctx context.Context, day time.Time) ([]ResourceOccupancy, error) {
	day = s.day(day)
	rooms, err := s.store.ListRooms(ctx, false)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	bookings := model.Snapshots(active)

	report := make([]ResourceOccupancy, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		report = append(report, ResourceOccupancy{
			Kind: allocation.KindRoom, ID: room.ID, Name: room.Name, Day: day,
			Occupancy: allocation.ComputeOccupancy(roomSnapshot(room), bookings, day),
		})
		if room.Mode != model.RoomModeDorm {
			continue
		}
		for _, bed := range room.Beds {
			report = append(report, ResourceOccupancy{
				Kind: allocation.KindBed, ID: bed.ID, Name: bed.Name, RoomID: room.ID, Day: day,
				Occupancy: allocation.ComputeOccupancy(allocation.Bed(bed.ID, bed.Archived), bookings, day),
			})
		}
	}
	return report, nil
}

// roomSnapshot expects room.Beds to be loaded.
func roomSnapshot(room *model.Room) allocation.ResourceSnapshot {
	if room.Mode != model.RoomModeDorm {
		return allocation.Room(room.ID, room.Capacity, room.Archived)
	}
	var beds []string
	for _, bed := range room.Beds {
		if !bed.Archived {
			beds = append(beds, bed.ID)
		}
	}
	return allocation.Dorm(room.ID, beds, room.Archived)
}

func (s *Service) day(day time.Time) time.Time {
	if day.IsZero() {
		return allocation.Today(s.clock)
	}
	return allocation.Day(day)
}
