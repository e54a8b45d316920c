package booking

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/events"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/store"
)

// Dispatcher receives events once the transaction that produced them has committed.
type Dispatcher interface {
	Dispatch(e events.Event)
}

// Service applies the allocation rules to stored bookings. Every decision is
// read, evaluated and persisted inside one transaction that holds row locks
// on the guest and resource involved.
type Service struct {
	store      store.Store
	clock      allocation.Clock
	events     Dispatcher
	maxRetries int
}

// NewService creates a booking service. dispatcher may be nil.
func NewService(s store.Store, clock allocation.Clock, dispatcher Dispatcher, maxRetries int) *Service {
	if clock == nil {
		clock = allocation.SystemClock{}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Service{store: s, clock: clock, events: dispatcher, maxRetries: maxRetries}
}

// CreateRoomInput describes a new room. Beds lists bed names for dorm rooms.
type CreateRoomInput struct {
	Name     string         `json:"name"`
	Mode     model.RoomMode `json:"mode"`
	Capacity int            `json:"capacity"`
	Beds     []string       `json:"beds"`
}

// CreateGuestInput describes a new guest.
type CreateGuestInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality"`
}

// CreateBookingInput is an operator booking. Exactly one of RoomID and BedID
// must be set; a dorm RoomID is given its first free bed. Status defaults to
// confirmed.
type CreateBookingInput struct {
	GuestID  string
	RoomID   string
	BedID    string
	CheckIn  time.Time
	CheckOut time.Time
	Status   allocation.Status
	Notes    string
}

// BookingRequestInput is a public inquiry. The guest is matched by email.
type BookingRequestInput struct {
	Name        string
	Email       string
	Phone       string
	Nationality string
	RoomID      string
	BedID       string
	CheckIn     time.Time
	CheckOut    time.Time
	Notes       string
}

// UpdateBookingInput changes dates, resource or notes. Nil fields keep their value.
type UpdateBookingInput struct {
	RoomID   *string
	BedID    *string
	CheckIn  *time.Time
	CheckOut *time.Time
	Notes    *string
}

// CreateRoom stores a room and, for dorms, its beds.
func (s *Service) CreateRoom(ctx context.Context, in CreateRoomInput) (*model.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("room name is required")
	}

	room := &model.Room{Name: name, Mode: in.Mode}
	switch in.Mode {
	case model.RoomModePrivate:
		if in.Capacity < 1 {
			return nil, invalid("private room capacity must be at least 1")
		}
		if len(in.Beds) > 0 {
			return nil, invalid("private rooms have no beds")
		}
		room.Capacity = in.Capacity
	case model.RoomModeDorm:
		for _, bedName := range in.Beds {
			bedName = strings.TrimSpace(bedName)
			if bedName == "" {
				return nil, invalid("bed name is required")
			}
			room.Beds = append(room.Beds, model.Bed{Name: bedName})
		}
	default:
		return nil, invalid("room mode must be %q or %q", model.RoomModePrivate, model.RoomModeDorm)
	}

	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	log.Printf("Created %s room %s (%s) with %d beds", room.Mode, room.ID, room.Name, len(room.Beds))
	return room, nil
}

// AddBed adds a bed to a dorm room that is not archived.
func (s *Service) AddBed(ctx context.Context, roomID, name string) (*model.Bed, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("bed name is required")
	}

	var bed *model.Bed
	err := s.inTx(ctx, func(tx store.Tx) error {
		room, err := tx.LockRoom(roomID)
		if err != nil {
			return fmt.Errorf("room %s: %w", roomID, err)
		}
		if room.Archived {
			return fmt.Errorf("room %s: %w", roomID, ErrArchived)
		}
		if room.Mode != model.RoomModeDorm {
			return invalid("room %s is not a dorm", roomID)
		}
		bed = &model.Bed{RoomID: room.ID, Name: name}
		return tx.CreateBed(bed)
	})
	if err != nil {
		return nil, err
	}
	return bed, nil
}

// CreateGuest registers a guest. A guest whose email is already known is
// returned as is.
func (s *Service) CreateGuest(ctx context.Context, in CreateGuestInput) (*model.Guest, error) {
	guest, err := newGuest(in)
	if err != nil {
		return nil, err
	}
	if guest.Email == nil {
		if err := s.store.CreateGuest(ctx, guest); err != nil {
			return nil, err
		}
		return guest, nil
	}

	var stored *model.Guest
	err = s.inTx(ctx, func(tx store.Tx) error {
		candidate := *guest
		g, err := tx.UpsertGuestByEmail(&candidate)
		if err != nil {
			return err
		}
		if g.Archived {
			return fmt.Errorf("guest %s: %w", g.ID, ErrArchived)
		}
		stored = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func newGuest(in CreateGuestInput) (*model.Guest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("guest name is required")
	}
	g := &model.Guest{
		Name:        name,
		Phone:       strings.TrimSpace(in.Phone),
		Nationality: strings.TrimSpace(in.Nationality),
	}
	if email := normalizeEmail(in.Email); email != "" {
		if !strings.Contains(email, "@") {
			return nil, invalid("email %q is not valid", in.Email)
		}
		g.Email = &email
	}
	return g, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateBooking admits an operator booking after checking it against the
// bookings already holding the resource.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	status := in.Status
	if status == "" {
		status = allocation.StatusConfirmed
	}
	if !allocation.InitialStatusAllowed(status) {
		return nil, invalid("bookings cannot be created in status %q", status)
	}
	if in.GuestID == "" {
		return nil, invalid("guestId is required")
	}
	stay := allocation.NewRange(in.CheckIn, in.CheckOut)

	var b *model.Booking
	err := s.inTx(ctx, func(tx store.Tx) error {
		guest, err := tx.LockGuest(in.GuestID)
		if err != nil {
			return fmt.Errorf("guest %s: %w", in.GuestID, err)
		}
		if guest.Archived {
			return fmt.Errorf("guest %s: %w", guest.ID, ErrArchived)
		}
		b, err = admit(tx, guest.ID, in.RoomID, in.BedID, stay, status, in.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.BookingEvent(events.TypeBookingCreated, b, s.clock.Now()))
	return b, nil
}

// RequestBooking records a public inquiry in status requested, creating the
// guest on first contact.
func (s *Service) RequestBooking(ctx context.Context, in BookingRequestInput) (*model.Booking, error) {
	guest, err := newGuest(CreateGuestInput{Name: in.Name, Email: in.Email, Phone: in.Phone, Nationality: in.Nationality})
	if err != nil {
		return nil, err
	}
	if guest.Email == nil {
		return nil, invalid("email is required")
	}
	stay := allocation.NewRange(in.CheckIn, in.CheckOut)

	var b *model.Booking
	err = s.inTx(ctx, func(tx store.Tx) error {
		candidate := *guest
		g, err := tx.UpsertGuestByEmail(&candidate)
		if err != nil {
			return err
		}
		if g.Archived {
			return fmt.Errorf("guest %s: %w", g.ID, ErrArchived)
		}
		b, err = admit(tx, g.ID, in.RoomID, in.BedID, stay, allocation.StatusRequested, in.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.BookingEvent(events.TypeBookingCreated, b, s.clock.Now()))
	return b, nil
}

func admit(tx store.Tx, guestID, roomID, bedID string, stay allocation.Range, status allocation.Status, notes string) (*model.Booking, error) {
	if !stay.Valid() {
		return nil, rejected(allocation.ReasonInvalidRange, nil)
	}
	resource, err := place(tx, roomID, bedID, stay, "")
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		GuestID: guestID,
		Status:  status,
		Notes:   strings.TrimSpace(notes),
	}
	b.SetRange(stay)
	setResource(b, resource)
	if err := tx.CreateBooking(b); err != nil {
		return nil, err
	}
	return b, nil
}

// place locks the target of a stay and checks it against the active bookings
// stored there, skipping excludeID. A dorm room resolves to the first of its
// beds, by name, that is free for the whole stay. The returned snapshot is
// the resource the booking must be stored on.
func place(tx store.Tx, roomID, bedID string, stay allocation.Range, excludeID string) (allocation.ResourceSnapshot, error) {
	switch {
	case bedID != "" && roomID == "":
		bed, err := tx.LockBed(bedID)
		if err != nil {
			return allocation.ResourceSnapshot{}, fmt.Errorf("bed %s: %w", bedID, err)
		}
		if bed.Archived {
			return allocation.ResourceSnapshot{}, fmt.Errorf("bed %s: %w", bedID, ErrArchived)
		}
		existing, err := tx.ActiveBookingsForBeds(bed.ID)
		if err != nil {
			return allocation.ResourceSnapshot{}, err
		}
		resource := allocation.Bed(bed.ID, bed.Archived)
		return resource, evaluate(resource, stay, existing, excludeID)

	case roomID != "" && bedID == "":
		room, err := tx.LockRoom(roomID)
		if err != nil {
			return allocation.ResourceSnapshot{}, fmt.Errorf("room %s: %w", roomID, err)
		}
		if room.Archived {
			return allocation.ResourceSnapshot{}, fmt.Errorf("room %s: %w", roomID, ErrArchived)
		}
		if room.Mode == model.RoomModeDorm {
			return placeInDorm(tx, room, stay, excludeID)
		}
		existing, err := tx.ActiveBookingsForRoom(room.ID)
		if err != nil {
			return allocation.ResourceSnapshot{}, err
		}
		resource := allocation.Room(room.ID, room.Capacity, room.Archived)
		return resource, evaluate(resource, stay, existing, excludeID)
	}
	return allocation.ResourceSnapshot{}, invalid("exactly one of roomId and bedId is required")
}

// placeInDorm runs with the dorm room already locked and locks its beds
// before reading their bookings.
func placeInDorm(tx store.Tx, room *model.Room, stay allocation.Range, excludeID string) (allocation.ResourceSnapshot, error) {
	beds, err := tx.LockBedsOfRoom(room.ID)
	if err != nil {
		return allocation.ResourceSnapshot{}, err
	}
	sort.SliceStable(beds, func(i, j int) bool { return beds[i].Name < beds[j].Name })

	var live []string
	for _, bed := range beds {
		if !bed.Archived {
			live = append(live, bed.ID)
		}
	}
	existing, err := tx.ActiveBookingsForBeds(live...)
	if err != nil {
		return allocation.ResourceSnapshot{}, err
	}

	bedID, d := allocation.AssignBed(allocation.Dorm(room.ID, live, room.Archived), stay, model.Snapshots(existing), excludeID)
	if !d.Accepted {
		return allocation.ResourceSnapshot{}, rejected(d.Reason, d.Conflicts)
	}
	return allocation.Bed(bedID, false), nil
}

func evaluate(resource allocation.ResourceSnapshot, stay allocation.Range, existing []model.Booking, excludeID string) error {
	if d := allocation.Evaluate(resource, stay, model.Snapshots(existing), excludeID); !d.Accepted {
		return rejected(d.Reason, d.Conflicts)
	}
	return nil
}

func setResource(b *model.Booking, r allocation.ResourceSnapshot) {
	id := r.ID
	b.RoomID, b.BedID = nil, nil
	if r.Kind == allocation.KindBed {
		b.BedID = &id
	} else {
		b.RoomID = &id
	}
}

// UpdateBooking changes the dates or resource of an active booking. The new
// stay is evaluated against every other booking on the target resource.
// Archived bookings are history and cannot be edited, not even their notes.
func (s *Service) UpdateBooking(ctx context.Context, id string, in UpdateBookingInput) (*model.Booking, error) {
	var b *model.Booking
	err := s.inTx(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.LockBooking(id)
		if err != nil {
			return fmt.Errorf("booking %s: %w", id, err)
		}
		if b.Archived {
			return fmt.Errorf("booking %s: %w", id, ErrArchived)
		}

		if in.Notes != nil {
			b.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.RoomID == nil && in.BedID == nil && in.CheckIn == nil && in.CheckOut == nil {
			return tx.SaveBooking(b)
		}

		if d := allocation.CheckReschedule(b.Status); !d.Accepted {
			return rejected(d.Reason, nil)
		}

		current := b.Snapshot()
		roomID, bedID := current.RoomID, current.BedID
		if in.RoomID != nil || in.BedID != nil {
			roomID, bedID = deref(in.RoomID), deref(in.BedID)
		}
		stay := current.Range
		if in.CheckIn != nil {
			stay.Start = allocation.Day(*in.CheckIn)
		}
		if in.CheckOut != nil {
			stay.End = allocation.Day(*in.CheckOut)
		}
		if !stay.Valid() {
			return rejected(allocation.ReasonInvalidRange, nil)
		}

		resource, err := place(tx, roomID, bedID, stay, b.ID)
		if err != nil {
			return err
		}

		b.SetRange(stay)
		setResource(b, resource)
		return tx.SaveBooking(b)
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.BookingEvent(events.TypeBookingUpdated, b, s.clock.Now()))
	return b, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Transition moves a booking to status to. Confirming an inquiry re-checks
// availability first. Cancelling a cancelled booking succeeds without change.
func (s *Service) Transition(ctx context.Context, id string, to allocation.Status) (*model.Booking, error) {
	if !to.Known() {
		return nil, invalid("unknown status %q", to)
	}

	var (
		b    *model.Booking
		noop bool
	)
	err := s.inTx(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.LockBooking(id)
		if err != nil {
			return fmt.Errorf("booking %s: %w", id, err)
		}

		d := allocation.CheckTransition(b.Status, to)
		if !d.Accepted {
			return rejected(d.Reason, nil)
		}
		noop = d.Noop
		if noop {
			return nil
		}

		if d.RecheckConflicts {
			current := b.Snapshot()
			if _, err := place(tx, current.RoomID, current.BedID, current.Range, b.ID); err != nil {
				return err
			}
		}

		b.Status = to
		return tx.SaveBooking(b)
	})
	if err != nil {
		return nil, err
	}
	if !noop {
		log.Printf("Booking %s moved to %s", b.ID, b.Status)
		s.publish(events.BookingEvent(events.StatusType(b.Status), b, s.clock.Now()))
	}
	return b, nil
}

// Cancel cancels a booking. Repeated calls are no-ops.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return s.Transition(ctx, id, allocation.StatusCancelled)
}

// NextStates returns the statuses the booking may move to next.
func (s *Service) NextStates(ctx context.Context, id string) ([]allocation.Status, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", id, err)
	}
	return allocation.NextLegalStates(b.Status), nil
}

// ArchiveBooking soft-deletes a cancelled or checked-out booking.
func (s *Service) ArchiveBooking(ctx context.Context, id string) (allocation.ArchivalDecision, error) {
	var d allocation.ArchivalDecision
	err := s.inTx(ctx, func(tx store.Tx) error {
		b, err := tx.LockBooking(id)
		if err != nil {
			return fmt.Errorf("booking %s: %w", id, err)
		}
		if b.Archived {
			d = allocation.ArchivalDecision{Accepted: true, Noop: true}
			return nil
		}
		if !allocation.CanArchiveBooking(b.Status) {
			return rejected(allocation.ReasonInvalidTransition, nil)
		}
		d = allocation.ArchivalDecision{Accepted: true}
		return tx.ArchiveBooking(b.ID, s.clock.Now())
	})
	return d, err
}

// ArchiveGuest archives a guest that holds no active bookings.
func (s *Service) ArchiveGuest(ctx context.Context, id string) (allocation.ArchivalDecision, error) {
	var d allocation.ArchivalDecision
	err := s.inTx(ctx, func(tx store.Tx) error {
		guest, err := tx.LockGuest(id)
		if err != nil {
			return fmt.Errorf("guest %s: %w", id, err)
		}
		related, err := tx.ActiveBookingsForGuest(guest.ID)
		if err != nil {
			return err
		}
		d = allocation.CanArchive(allocation.EntityGuest,
			allocation.EntitySnapshot{ID: guest.ID, Archived: guest.Archived}, model.Snapshots(related))
		if !d.Accepted {
			return rejected(d.Reason, d.Blocking)
		}
		if d.Noop {
			return nil
		}
		return tx.ArchiveGuest(guest.ID, s.clock.Now())
	})
	if err == nil && !d.Noop {
		s.publish(events.Event{Type: events.TypeGuestArchived, GuestID: id, OccurredAt: s.clock.Now()})
	}
	return d, err
}

// ArchiveBed archives a bed that holds no active bookings.
func (s *Service) ArchiveBed(ctx context.Context, id string) (allocation.ArchivalDecision, error) {
	var (
		d      allocation.ArchivalDecision
		roomID string
	)
	err := s.inTx(ctx, func(tx store.Tx) error {
		bed, err := tx.LockBed(id)
		if err != nil {
			return fmt.Errorf("bed %s: %w", id, err)
		}
		roomID = bed.RoomID
		related, err := tx.ActiveBookingsForBeds(bed.ID)
		if err != nil {
			return err
		}
		d = allocation.CanArchive(allocation.EntityBed,
			allocation.EntitySnapshot{ID: bed.ID, Archived: bed.Archived}, model.Snapshots(related))
		if !d.Accepted {
			return rejected(d.Reason, d.Blocking)
		}
		if d.Noop {
			return nil
		}
		return tx.ArchiveBeds([]string{bed.ID}, s.clock.Now())
	})
	if err == nil && !d.Noop {
		s.publish(events.Event{Type: events.TypeBedArchived, BedID: id, RoomID: roomID, OccurredAt: s.clock.Now()})
	}
	return d, err
}

// ArchiveRoom archives a room and every bed it still owns. It is rejected
// while any booking on the room or on one of its beds is active.
func (s *Service) ArchiveRoom(ctx context.Context, id string) (allocation.ArchivalDecision, error) {
	var d allocation.ArchivalDecision
	err := s.inTx(ctx, func(tx store.Tx) error {
		room, err := tx.LockRoom(id)
		if err != nil {
			return fmt.Errorf("room %s: %w", id, err)
		}
		beds, err := tx.LockBedsOfRoom(room.ID)
		if err != nil {
			return err
		}
		var live []string
		for _, bed := range beds {
			if !bed.Archived {
				live = append(live, bed.ID)
			}
		}

		onRoom, err := tx.ActiveBookingsForRoom(room.ID)
		if err != nil {
			return err
		}
		onBeds, err := tx.ActiveBookingsForBeds(live...)
		if err != nil {
			return err
		}
		related := append(model.Snapshots(onRoom), model.Snapshots(onBeds)...)

		d = allocation.CanArchive(allocation.EntityRoom,
			allocation.EntitySnapshot{ID: room.ID, Archived: room.Archived, Beds: live}, related)
		if !d.Accepted {
			return rejected(d.Reason, d.Blocking)
		}
		if d.Noop {
			return nil
		}

		now := s.clock.Now()
		if err := tx.ArchiveBeds(d.CascadeBeds, now); err != nil {
			return err
		}
		return tx.ArchiveRoom(room.ID, now)
	})
	if err != nil {
		return d, err
	}
	if !d.Noop {
		now := s.clock.Now()
		log.Printf("Archived room %s and %d beds", id, len(d.CascadeBeds))
		s.publish(events.Event{Type: events.TypeRoomArchived, RoomID: id, OccurredAt: now})
		for _, bedID := range d.CascadeBeds {
			s.publish(events.Event{Type: events.TypeBedArchived, RoomID: id, BedID: bedID, OccurredAt: now})
		}
	}
	return d, nil
}

// inTx runs fn in a transaction, replaying it when Postgres aborts it for a
// serialization failure or deadlock.
func (s *Service) inTx(ctx context.Context, fn func(tx store.Tx) error) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.store.Transaction(ctx, fn)
		if !retryable(err) {
			break
		}
		log.Printf("Transaction aborted by a concurrent writer (attempt %d/%d): %v", attempt+1, s.maxRetries+1, err)
		if ctx.Err() != nil {
			break
		}
	}
	return translate(err)
}

func (s *Service) publish(e events.Event) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(e)
}
