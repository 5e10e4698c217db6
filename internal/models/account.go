package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one external account under a LinkedItem. It is keyed for
// upserts by (UserID, ExternalAccountID).
type Account struct {
	Base
	UserID            string              `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_external" json:"user_id"`
	LinkedItemID      string              `gorm:"type:uuid;not null;index" json:"linked_item_id"`
	ExternalAccountID string              `gorm:"not null;uniqueIndex:idx_accounts_user_external" json:"external_account_id"`
	Name              string              `gorm:"not null" json:"name"`
	Mask              string              `json:"mask"`
	OfficialName      string              `json:"official_name"`
	Type              string              `json:"type"`
	Subtype           string              `json:"subtype"`
	CurrentBalance    decimal.NullDecimal `gorm:"type:numeric(19,4)" json:"current_balance"`
	AvailableBalance  decimal.NullDecimal `gorm:"type:numeric(19,4)" json:"available_balance"`
	CurrencyCode      string              `gorm:"not null;default:'USD'" json:"currency_code"`
	IsActive          bool                `gorm:"default:true" json:"is_active"`
	LastUpdated       time.Time           `json:"last_updated"`
}
