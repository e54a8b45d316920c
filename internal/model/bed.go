package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bed represents a single bed inside a dorm room.
type Bed struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	RoomID     string     `gorm:"size:36;index;not null" json:"roomId"`
	Name       string     `gorm:"size:64;not null" json:"name"`
	Archived   bool       `gorm:"not null;default:false" json:"archived"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	// Associations
	Room *Room `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (b *Bed) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
