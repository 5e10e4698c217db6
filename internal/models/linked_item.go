package models

import "time"

// LinkedItem is a user's connection to one financial institution through
// Plaid. The access token is the durable provider credential and Cursor is
// the transactions/sync position to resume from; nil means a full initial sync.
type LinkedItem struct {
	Base
	UserID          string     `gorm:"type:uuid;not null;index" json:"user_id"`
	ItemID          string     `gorm:"uniqueIndex;not null" json:"item_id"`
	AccessToken     string     `gorm:"not null" json:"-"`
	InstitutionID   string     `json:"institution_id"`
	InstitutionName string     `json:"institution_name"`
	IsActive        bool       `gorm:"default:true;index" json:"is_active"`
	Cursor          *string    `json:"-"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	Accounts        []Account  `gorm:"foreignKey:LinkedItemID" json:"accounts,omitempty"`
}

// TableName keeps the provider's naming for the items table.
func (LinkedItem) TableName() string {
	return "plaid_items"
}
