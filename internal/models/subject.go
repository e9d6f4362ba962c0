package models

import "time"

// Subject is one board category. The set is data, not a code-level enum:
// clients fetch it at startup and rebuild their buckets when it changes.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
