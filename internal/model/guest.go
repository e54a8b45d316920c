package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guest is a person who can hold bookings. Email is the natural key used to
// de-duplicate guests created from public inquiries.
type Guest struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"size:256;not null" json:"name"`
	Email       *string    `gorm:"size:256;uniqueIndex" json:"email,omitempty"`
	Phone       string     `gorm:"size:64" json:"phone,omitempty"`
	Nationality string     `gorm:"size:64" json:"nationality,omitempty"`
	Archived    bool       `gorm:"not null;default:false" json:"archived"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updatedAt"`
}

func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
