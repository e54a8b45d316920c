package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomMode says how a room is sold.
type RoomMode string

const (
	// RoomModePrivate rooms are booked as a whole, up to Capacity guests.
	RoomModePrivate RoomMode = "private"
	// RoomModeDorm rooms are booked bed by bed.
	RoomModeDorm RoomMode = "dorm"
)

// Room represents a physical room of the hostel. Capacity is only stored for
// private rooms; a dorm's capacity is the number of its beds that are not archived.
type Room struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Name       string     `gorm:"size:128;not null" json:"name"`
	Mode       RoomMode   `gorm:"size:16;not null" json:"mode"`
	Capacity   int        `gorm:"not null" json:"capacity"`
	Archived   bool       `gorm:"not null;default:false;index" json:"archived"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updatedAt"`

	// Associations
	Beds []Bed `gorm:"foreignKey:RoomID" json:"beds,omitempty"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
