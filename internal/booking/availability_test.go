package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/events"
	"hostel-allocation-backend/internal/model"
)

func bedNames(room *model.Room) map[string]string {
	names := make(map[string]string, len(room.Beds))
	for _, bed := range room.Beds {
		names[bed.ID] = bed.Name
	}
	return names
}

func TestCreateBooking_DormRoomOfFour(t *testing.T) {
	f, dispatcher := newFixture(t)
	ctx := context.Background()

	dorm, err := f.svc.CreateRoom(ctx, CreateRoomInput{Name: "Dorm 4", Mode: model.RoomModeDorm, Beds: []string{"D3", "D1", "D4", "D2"}})
	require.NoError(t, err)
	names := bedNames(dorm)

	book := func() (*model.Booking, error) {
		return f.svc.CreateBooking(ctx, CreateBookingInput{GuestID: f.guest.ID, RoomID: dorm.ID, CheckIn: date(10, 15), CheckOut: date(10, 17)})
	}

	var admitted []string
	for _, want := range []string{"D1", "D2", "D3", "D4"} {
		b, err := book()
		require.NoError(t, err)
		require.NotNil(t, b.BedID)
		assert.Nil(t, b.RoomID)
		assert.Equal(t, want, names[*b.BedID])
		admitted = append(admitted, b.ID)
	}

	_, err = book()
	rej := requireRejection(t, err, allocation.ReasonCapacityExceeded)
	assert.ElementsMatch(t, admitted, rej.Conflicts)

	// D1 turns over on the 17th.
	inquiry, err := f.svc.RequestBooking(ctx, BookingRequestInput{
		Name: "Ben", Email: "ben@example.com", RoomID: dorm.ID, CheckIn: date(10, 17), CheckOut: date(10, 18),
	})
	require.NoError(t, err)
	assert.Equal(t, allocation.StatusRequested, inquiry.Status)
	require.NotNil(t, inquiry.BedID)
	assert.Equal(t, "D1", names[*inquiry.BedID])

	assert.Equal(t, 5, countType(dispatcher, events.TypeBookingCreated))
}

func TestCreateBooking_DormRoomSkipsArchivedAndBusyBeds(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	a1, a2 := f.dorm.Beds[0].ID, f.dorm.Beds[1].ID
	bookRoom := func(roomID string, in, out int) (*model.Booking, error) {
		return f.svc.CreateBooking(ctx, CreateBookingInput{GuestID: f.guest.ID, RoomID: roomID, CheckIn: date(10, in), CheckOut: date(10, out)})
	}

	_, err := f.bookBed(t, a1, date(10, 15), date(10, 17))
	require.NoError(t, err)

	onA2, err := bookRoom(f.dorm.ID, 16, 18)
	require.NoError(t, err)
	assert.Equal(t, a2, *onA2.BedID)

	_, err = bookRoom(f.dorm.ID, 16, 17)
	requireRejection(t, err, allocation.ReasonCapacityExceeded)

	_, err = f.svc.Cancel(ctx, onA2.ID)
	require.NoError(t, err)
	_, err = f.svc.ArchiveBed(ctx, a2)
	require.NoError(t, err)

	_, err = bookRoom(f.dorm.ID, 16, 17)
	requireRejection(t, err, allocation.ReasonCapacityExceeded)

	onA1, err := bookRoom(f.dorm.ID, 17, 18)
	require.NoError(t, err)
	assert.Equal(t, a1, *onA1.BedID)

	t.Run("moving a private stay into the dorm", func(t *testing.T) {
		private, err := bookRoom(f.private.ID, 20, 22)
		require.NoError(t, err)

		dormID := f.dorm.ID
		moved, err := f.svc.UpdateBooking(ctx, private.ID, UpdateBookingInput{RoomID: &dormID})
		require.NoError(t, err)
		assert.Nil(t, moved.RoomID)
		require.NotNil(t, moved.BedID)
		assert.Equal(t, a1, *moved.BedID)
	})
}

func TestAvailability(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	stay := allocation.NewRange(date(10, 15), date(10, 17))

	_, err := f.bookBed(t, f.bed(), date(10, 15), date(10, 16))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{GuestID: f.guest.ID, RoomID: f.private.ID, CheckIn: date(10, 16), CheckOut: date(10, 18)})
	require.NoError(t, err)

	dorm, err := f.svc.RoomAvailability(ctx, f.dorm.ID, stay)
	require.NoError(t, err)
	assert.Equal(t, 2, dorm.Capacity)
	assert.Equal(t, 1, dorm.Vacancy)
	require.Len(t, dorm.FreeBeds, 1)
	assert.Equal(t, "A2", dorm.FreeBeds[0].Name)

	beds, err := f.svc.AvailableBeds(ctx, f.dorm.ID, stay)
	require.NoError(t, err)
	require.Len(t, beds, 1)
	assert.Equal(t, f.dorm.Beds[1].ID, beds[0].ID)

	private, err := f.svc.RoomAvailability(ctx, f.private.ID, stay)
	require.NoError(t, err)
	assert.Equal(t, 2, private.Capacity)
	assert.Equal(t, 1, private.Vacancy)
	assert.Empty(t, private.FreeBeds)

	_, err = f.svc.AvailableBeds(ctx, f.private.ID, stay)
	assert.ErrorIs(t, err, ErrInvalidInput)

	rooms, err := f.svc.AvailableRooms(ctx, stay)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	// Fill the private room on the 16th.
	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{GuestID: f.guest.ID, RoomID: f.private.ID, CheckIn: date(10, 15), CheckOut: date(10, 17)})
	require.NoError(t, err)

	rooms, err = f.svc.AvailableRooms(ctx, stay)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, f.dorm.ID, rooms[0].RoomID)

	_, err = f.svc.AvailableRooms(ctx, allocation.NewRange(date(10, 17), date(10, 15)))
	requireRejection(t, err, allocation.ReasonInvalidRange)
	_, err = f.svc.RoomAvailability(ctx, "missing", stay)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDailyActivity(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()

	arriving, err := f.bookBed(t, f.dorm.Beds[0].ID, date(10, 16), date(10, 18))
	require.NoError(t, err)
	leaving, err := f.bookBed(t, f.dorm.Beds[1].ID, date(10, 14), date(10, 16))
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, leaving.ID, allocation.StatusCheckedIn)
	require.NoError(t, err)

	cancelled, err := f.svc.CreateBooking(ctx, CreateBookingInput{GuestID: f.guest.ID, RoomID: f.private.ID, CheckIn: date(10, 16), CheckOut: date(10, 17)})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{
		GuestID: f.guest.ID, RoomID: f.private.ID, CheckIn: date(10, 12), CheckOut: date(10, 16), Status: allocation.StatusRequested,
	})
	require.NoError(t, err)

	// The fixed clock reads 2025-10-16.
	today, err := f.svc.DailyActivity(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, date(10, 16), today.Day)
	require.Len(t, today.Arrivals, 1)
	assert.Equal(t, arriving.ID, today.Arrivals[0].ID)
	require.Len(t, today.Departures, 1)
	assert.Equal(t, leaving.ID, today.Departures[0].ID)
	require.NotNil(t, today.Departures[0].Guest)
	assert.Equal(t, "Ana", today.Departures[0].Guest.Name)

	later, err := f.svc.DailyActivity(ctx, date(10, 18))
	require.NoError(t, err)
	assert.Empty(t, later.Arrivals)
	require.Len(t, later.Departures, 1)
	assert.Equal(t, arriving.ID, later.Departures[0].ID)
}

func TestCreateBooking_ConcurrentRequestsForTheLastPlace(t *testing.T) {
	f, _ := newFixture(t)
	ctx := context.Background()
	const attempts = 6

	testCases := []struct {
		name     string
		in       CreateBookingInput
		admitted int
		reason   allocation.Reason
	}{
		{name: "one bed", in: CreateBookingInput{BedID: f.bed()}, admitted: 1, reason: allocation.ReasonOverlap},
		{name: "private room of two", in: CreateBookingInput{RoomID: f.private.ID}, admitted: 2, reason: allocation.ReasonCapacityExceeded},
		// A1 is taken by the first case, so only A2 is left.
		{name: "dorm room", in: CreateBookingInput{RoomID: f.dorm.ID}, admitted: 1, reason: allocation.ReasonCapacityExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			in.GuestID = f.guest.ID
			in.CheckIn, in.CheckOut = date(10, 15), date(10, 17)

			var (
				mu       sync.Mutex
				wg       sync.WaitGroup
				bookings []*model.Booking
				failures []error
			)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					b, err := f.svc.CreateBooking(ctx, in)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						failures = append(failures, err)
						return
					}
					bookings = append(bookings, b)
				}()
			}
			wg.Wait()

			assert.Len(t, bookings, tc.admitted)
			assert.Len(t, failures, attempts-tc.admitted)
			for _, err := range failures {
				requireRejection(t, err, tc.reason)
			}

			seen := map[string]bool{}
			for _, b := range bookings {
				if b.BedID != nil {
					assert.False(t, seen[*b.BedID], "bed %s assigned twice", *b.BedID)
					seen[*b.BedID] = true
				}
			}
		})
	}
}
