package booking

import (
	"context"
	"time"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/store"
)

// DailyActivity is the front desk view of one day.
type DailyActivity struct {
	Day        time.Time       `json:"day"`
	Arrivals   []model.Booking `json:"arrivals"`
	Departures []model.Booking `json:"departures"`
}

// DailyActivity lists the active bookings starting on day and the confirmed
// or checked-in bookings ending on it. A zero day means today.
func (s *Service) DailyActivity(ctx context.Context, day time.Time) (*DailyActivity, error) {
	day = s.day(day)
	bookings, err := s.store.ListBookings(ctx, store.BookingFilter{})
	if err != nil {
		return nil, err
	}

	a := &DailyActivity{Day: day, Arrivals: []model.Booking{}, Departures: []model.Booking{}}
	for _, b := range bookings {
		stay := b.Range()
		if stay.Start.Equal(day) && b.Status.Active() {
			a.Arrivals = append(a.Arrivals, b)
		}
		if stay.End.Equal(day) && (b.Status == allocation.StatusConfirmed || b.Status == allocation.StatusCheckedIn) {
			a.Departures = append(a.Departures, b)
		}
	}
	return a, nil
}
