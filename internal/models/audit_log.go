package models

import (
	"time"

	"gorm.io/gorm"
)

// Audited resource types.
const (
	AuditResourceUser      = "user"
	AuditResourcePlaidItem = "plaid_item"
)

// AuditLog is an append-only record of a security-relevant event. Entries
// are never updated or soft-deleted, so it does not embed Base.
type AuditLog struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `gorm:"index" json:"user_id,omitempty"`
	Action       string    `gorm:"not null" json:"action"`
	ResourceType string    `gorm:"not null" json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Changes      string    `json:"changes,omitempty"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	return assignID(&a.ID)
}
