package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/allocation"
)

// Booking holds a guest's stay on exactly one room or bed.
// CheckOut is exclusive: the guest leaves that morning.
type Booking struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	GuestID    string            `gorm:"size:36;index;not null" json:"guestId"`
	RoomID     *string           `gorm:"size:36;index" json:"roomId,omitempty"`
	BedID      *string           `gorm:"size:36;index" json:"bedId,omitempty"`
	CheckIn    datatypes.Date    `gorm:"not null" json:"checkIn"`
	CheckOut   datatypes.Date    `gorm:"not null" json:"checkOut"`
	Status     allocation.Status `gorm:"size:16;not null;index" json:"status"`
	Notes      string            `gorm:"size:1024" json:"notes,omitempty"`
	Archived   bool              `gorm:"not null;default:false" json:"archived"`
	ArchivedAt *time.Time        `json:"archivedAt,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updatedAt"`

	// Associations
	Guest *Guest `gorm:"constraint:OnDelete:RESTRICT" json:"guest,omitempty"`
	Room  *Room  `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Bed   *Bed   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Range returns the stay as a half-open date range.
func (b *Booking) Range() allocation.Range {
	return allocation.NewRange(time.Time(b.CheckIn), time.Time(b.CheckOut))
}

// SetRange stores r as the booking's dates.
func (b *Booking) SetRange(r allocation.Range) {
	b.CheckIn = datatypes.Date(r.Start)
	b.CheckOut = datatypes.Date(r.End)
}

// Snapshot converts the row into the form the allocation rules work on.
func (b *Booking) Snapshot() allocation.BookingSnapshot {
	s := allocation.BookingSnapshot{
		ID:      b.ID,
		GuestID: b.GuestID,
		Range:   b.Range(),
		Status:  b.Status,
	}
	if b.RoomID != nil {
		s.RoomID = *b.RoomID
	}
	if b.BedID != nil {
		s.BedID = *b.BedID
	}
	return s
}

// Snapshots converts a slice of bookings.
func Snapshots(bookings []Booking) []allocation.BookingSnapshot {
	out := make([]allocation.BookingSnapshot, len(bookings))
	for i := range bookings {
		out[i] = bookings[i].Snapshot()
	}
	return out
}
