package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a provider-sourced transaction. ProviderTransactionID is
// unique per user and is the dedup key for reconciliation. Notes and
// ExcludedFromBudget belong to the user and are never written by sync.
// Rows are hard-deleted, so a provider id that comes back after removal is
// simply inserted again.
type Transaction struct {
	ID                    string          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	UserID                string          `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_user_provider" json:"user_id"`
	AccountID             string          `gorm:"type:uuid;not null;index" json:"account_id"`
	ProviderTransactionID string          `gorm:"not null;uniqueIndex:idx_transactions_user_provider" json:"provider_transaction_id"`
	Amount                decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"amount"`
	CurrencyCode          string          `json:"currency_code"`
	Date                  time.Time       `gorm:"not null;index" json:"date"`
	Name                  string          `json:"name"`
	MerchantName          string          `json:"merchant_name"`
	Pending               bool            `json:"pending"`
	Category              string          `json:"category"`
	Location              string          `gorm:"type:text" json:"location,omitempty"`
	PaymentMeta           string          `gorm:"type:text" json:"payment_meta,omitempty"`
	Notes                 string          `json:"notes"`
	ExcludedFromBudget    bool            `gorm:"default:false" json:"excluded_from_budget"`

	Account *Account `gorm:"foreignKey:AccountID" json:"-"`
}

// ProviderFields copies the provider-authored columns from src, leaving the
// identity and user-owned columns untouched.
func (t *Transaction) ProviderFields(src *Transaction) {
	t.Amount = src.Amount
	t.CurrencyCode = src.CurrencyCode
	t.Date = src.Date
	t.Name = src.Name
	t.MerchantName = src.MerchantName
	t.Pending = src.Pending
	t.Category = src.Category
	t.Location = src.Location
	t.PaymentMeta = src.PaymentMeta
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	return assignID(&t.ID)
}
