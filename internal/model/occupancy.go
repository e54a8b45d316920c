package model

import (
	"time"

	"gorm.io/datatypes"
)

// OccupancySnapshot records the occupancy of one resource for one day.
type OccupancySnapshot struct {
	ID           int64          `gorm:"primaryKey;autoIncrement"`
	ResourceKind string         `gorm:"size:8;not null;uniqueIndex:idx_occupancy_resource_day"`
	ResourceID   string         `gorm:"size:36;not null;uniqueIndex:idx_occupancy_resource_day"`
	Day          datatypes.Date `gorm:"not null;uniqueIndex:idx_occupancy_resource_day;index"`
	Capacity     int            `gorm:"not null"`
	Occupied     int            `gorm:"not null"`
	Available    int            `gorm:"not null"`
	Rate         float64        `gorm:"not null"`
	RecordedAt   time.Time      `gorm:"not null"`
}
