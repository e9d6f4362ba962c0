package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Managers and admins may change idea statuses.
const (
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// User represents an account known to the board.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;not null" json:"username"`
	Avatar    string         `json:"avatar"`
	Role      string         `gorm:"not null;default:'member'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Privileged reports whether the user may change idea statuses.
func (u *User) Privileged() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}
