package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Username            string       `gorm:"uniqueIndex;not null;size:50" json:"username"`
	Email               string       `gorm:"uniqueIndex;not null" json:"email"`
	Password            string       `gorm:"not null" json:"-"`
	FirstName           string       `json:"first_name"`
	LastName            string       `json:"last_name"`
	IsActive            bool         `gorm:"default:true" json:"is_active"`
	FailedLoginAttempts int          `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time   `json:"-"`
	LastLoginAt         *time.Time   `json:"last_login_at,omitempty"`
	LinkedItems         []LinkedItem `gorm:"foreignKey:UserID" json:"-"`
}

// IsLocked reports whether the lockout window is still open at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
