// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Idea statuses. UnderReview is the initial status; Approved is terminal.
const (
	StatusUnderReview = "Under Review"
	StatusInProgress  = "In Progress"
	StatusApproved    = "Approved"
	StatusArchived    = "Archived"
)

// Field limits enforced on create and edit.
const (
	MaxTitleLen       = 50
	MaxDescriptionLen = 1500
)

// ValidStatus reports whether s is a known idea status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUnderReview, StatusInProgress, StatusApproved, StatusArchived:
		return true
	}
	return false
}

// Idea represents a submitted idea on the board.
type Idea struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PublicID    string `gorm:"uniqueIndex;size:36" json:"public_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Subject     string `gorm:"not null;index" json:"subject"`
	Status      string `gorm:"not null;default:'Under Review'" json:"status"`
	Anonymous   bool   `json:"anonymous"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this idea (computed)
	Liked bool `gorm:"->" json:"liked"`
	// LikedBy is populated from the likes table when serving full idea payloads
	LikedBy   []uint         `gorm:"-" json:"liked_by"`
	History   []StatusChange `gorm:"foreignKey:IdeaID" json:"history"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Clone returns a copy with its own LikedBy and History backing arrays, so
// mutating the original later cannot reach through a handed-out copy.
func (i *Idea) Clone() Idea {
	c := *i
	if i.LikedBy != nil {
		c.LikedBy = append([]uint(nil), i.LikedBy...)
	}
	if i.History != nil {
		c.History = append([]StatusChange(nil), i.History...)
	}
	return c
}

// Terminal reports whether the idea's status permits no further transitions.
func (i *Idea) Terminal() bool {
	return i.Status == StatusApproved
}

// Likeable reports whether likes are currently accepted for the idea.
// Likes are only open while an idea is under review.
func (i *Idea) Likeable() bool {
	return i.Status == StatusUnderReview
}

// StatusChange is one append-only entry in an idea's status history.
type StatusChange struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IdeaID    uint      `gorm:"not null;index" json:"idea_id"`
	Status    string    `gorm:"not null" json:"status"`
	ChangedBy uint      `gorm:"not null" json:"changed_by"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
