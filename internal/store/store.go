package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations outside a booking transaction.
type Store interface {
	DB() *gorm.DB
	// Transaction runs fn inside a single database transaction. Every
	// read-evaluate-write of the allocation rules must happen inside fn.
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id string) (*model.Room, error)
	ListRooms(ctx context.Context, includeArchived bool) ([]model.Room, error)
	GetBed(ctx context.Context, id string) (*model.Bed, error)
	CreateGuest(ctx context.Context, guest *model.Guest) error
	GetGuest(ctx context.Context, id string) (*model.Guest, error)
	ListGuests(ctx context.Context, includeArchived bool) ([]model.Guest, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	ActiveBookings(ctx context.Context) ([]model.Booking, error)
	SaveOccupancySnapshots(ctx context.Context, snapshots []model.OccupancySnapshot) error
}

// Tx is the view of the store available inside a transaction. Lock* methods
// take a row lock (SELECT ... FOR UPDATE) held until the transaction ends.
type Tx interface {
	LockRoom(id string) (*model.Room, error)
	LockBed(id string) (*model.Bed, error)
	LockGuest(id string) (*model.Guest, error)
	LockBooking(id string) (*model.Booking, error)
	LockBedsOfRoom(roomID string) ([]model.Bed, error)
	GetRoom(id string) (*model.Room, error)

	ActiveBookingsForRoom(roomID string) ([]model.Booking, error)
	ActiveBookingsForBeds(bedIDs ...string) ([]model.Booking, error)
	ActiveBookingsForGuest(guestID string) ([]model.Booking, error)

	UpsertGuestByEmail(guest *model.Guest) (*model.Guest, error)
	CreateBed(bed *model.Bed) error
	CreateBooking(booking *model.Booking) error
	SaveBooking(booking *model.Booking) error

	ArchiveGuest(id string, at time.Time) error
	ArchiveBeds(ids []string, at time.Time) error
	ArchiveRoom(id string, at time.Time) error
	ArchiveBooking(id string, at time.Time) error
}

// BookingFilter narrows ListBookings.
type BookingFilter struct {
	GuestID         string
	RoomID          string
	BedID           string
	Status          allocation.Status
	IncludeArchived bool
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// CreateRoom inserts a room together with any beds it carries.
func (s *gormStore) CreateRoom(ctx context.Context, room *model.Room) error {
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room %q: %w", room.Name, err)
	}
	return nil
}

func (s *gormStore) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).
		Preload("Beds", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		First(&room, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// ListRooms returns rooms ordered by name. Archived beds are hidden unless
// includeArchived is set.
func (s *gormStore) ListRooms(ctx context.Context, includeArchived bool) ([]model.Room, error) {
	var rooms []model.Room
	q := s.db.WithContext(ctx).Preload("Beds", func(db *gorm.DB) *gorm.DB {
		if !includeArchived {
			db = db.Where("archived = ?", false)
		}
		return db.Order("name")
	})
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	if err := q.Order("name").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *gormStore) GetBed(ctx context.Context, id string) (*model.Bed, error) {
	var bed model.Bed
	if err := s.db.WithContext(ctx).First(&bed, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &bed, nil
}

func (s *gormStore) CreateGuest(ctx context.Context, guest *model.Guest) error {
	if err := s.db.WithContext(ctx).Create(guest).Error; err != nil {
		return fmt.Errorf("failed to create guest %q: %w", guest.Name, err)
	}
	return nil
}

func (s *gormStore) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	var guest model.Guest
	if err := s.db.WithContext(ctx).First(&guest, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &guest, nil
}

func (s *gormStore) ListGuests(ctx context.Context, includeArchived bool) ([]model.Guest, error) {
	var guests []model.Guest
	q := s.db.WithContext(ctx)
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	if err := q.Order("created_at DESC").Find(&guests).Error; err != nil {
		return nil, err
	}
	return guests, nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	if err := s.db.WithContext(ctx).Preload("Guest").First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (s *gormStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	var bookings []model.Booking
	q := s.db.WithContext(ctx).Preload("Guest")
	if filter.GuestID != "" {
		q = q.Where("guest_id = ?", filter.GuestID)
	}
	if filter.RoomID != "" {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.BedID != "" {
		q = q.Where("bed_id = ?", filter.BedID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if !filter.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	if err := q.Order("check_in ASC").Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// ActiveBookings returns every booking that still holds capacity.
func (s *gormStore) ActiveBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).
		Where("status IN ?", allocation.ActiveStatuses).
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// SaveOccupancySnapshots upserts one row per resource and day.
func (s *gormStore) SaveOccupancySnapshots(ctx context.Context, snapshots []model.OccupancySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	log.Printf("Upserting %d occupancy snapshots...", len(snapshots))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resource_kind"}, {Name: "resource_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"capacity", "occupied", "available", "rate", "recorded_at"}),
	}).Create(&snapshots).Error
}

// gormTx implements Tx on top of an open GORM transaction.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) locked() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) LockRoom(id string) (*model.Room, error) {
	var room model.Room
	if err := t.locked().First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (t *gormTx) LockBed(id string) (*model.Bed, error) {
	var bed model.Bed
	if err := t.locked().First(&bed, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &bed, nil
}

func (t *gormTx) LockGuest(id string) (*model.Guest, error) {
	var guest model.Guest
	if err := t.locked().First(&guest, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &guest, nil
}

func (t *gormTx) LockBooking(id string) (*model.Booking, error) {
	var booking model.Booking
	if err := t.locked().First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// LockBedsOfRoom locks every bed of the room, archived or not.
func (t *gormTx) LockBedsOfRoom(roomID string) ([]model.Bed, error) {
	var beds []model.Bed
	if err := t.locked().Where("room_id = ?", roomID).Order("id").Find(&beds).Error; err != nil {
		return nil, err
	}
	return beds, nil
}

func (t *gormTx) GetRoom(id string) (*model.Room, error) {
	var room model.Room
	if err := t.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (t *gormTx) activeBookings(query string, args ...any) ([]model.Booking, error) {
	var bookings []model.Booking
	err := t.db.
		Where(query, args...).
		Where("status IN ?", allocation.ActiveStatuses).
		Order("check_in ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active bookings: %w", err)
	}
	return bookings, nil
}

func (t *gormTx) ActiveBookingsForRoom(roomID string) ([]model.Booking, error) {
	return t.activeBookings("room_id = ?", roomID)
}

func (t *gormTx) ActiveBookingsForBeds(bedIDs ...string) ([]model.Booking, error) {
	if len(bedIDs) == 0 {
		return nil, nil
	}
	return t.activeBookings("bed_id IN ?", bedIDs)
}

func (t *gormTx) ActiveBookingsForGuest(guestID string) ([]model.Booking, error) {
	return t.activeBookings("guest_id = ?", guestID)
}

// UpsertGuestByEmail returns the guest registered under guest.Email, creating
// it from guest when none exists yet.
func (t *gormTx) UpsertGuestByEmail(guest *model.Guest) (*model.Guest, error) {
	if guest.Email == nil || *guest.Email == "" {
		return nil, errors.New("guest email is required")
	}
	if err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(guest).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert guest %q: %w", *guest.Email, err)
	}

	var stored model.Guest
	if err := t.locked().First(&stored, "email = ?", *guest.Email).Error; err != nil {
		return nil, notFound(err)
	}
	return &stored, nil
}

func (t *gormTx) CreateBed(bed *model.Bed) error {
	if err := t.db.Create(bed).Error; err != nil {
		return fmt.Errorf("failed to create bed %q: %w", bed.Name, err)
	}
	return nil
}

func (t *gormTx) CreateBooking(booking *model.Booking) error {
	if err := t.db.Omit(clause.Associations).Create(booking).Error; err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (t *gormTx) SaveBooking(booking *model.Booking) error {
	if err := t.db.Omit(clause.Associations).Save(booking).Error; err != nil {
		return fmt.Errorf("failed to save booking %s: %w", booking.ID, err)
	}
	return nil
}

func (t *gormTx) ArchiveGuest(id string, at time.Time) error {
	return t.archive(&model.Guest{}, []string{id}, at)
}

func (t *gormTx) ArchiveBeds(ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return t.archive(&model.Bed{}, ids, at)
}

func (t *gormTx) ArchiveRoom(id string, at time.Time) error {
	return t.archive(&model.Room{}, []string{id}, at)
}

func (t *gormTx) ArchiveBooking(id string, at time.Time) error {
	return t.archive(&model.Booking{}, []string{id}, at)
}

func (t *gormTx) archive(table any, ids []string, at time.Time) error {
	err := t.db.Model(table).
		Where("id IN ? AND archived = ?", ids, false).
		Updates(map[string]any{"archived": true, "archived_at": at}).Error
	if err != nil {
		return fmt.Errorf("failed to archive %v: %w", ids, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
