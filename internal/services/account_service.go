package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "goze/internal/errors"
	"goze/internal/models"
	"goze/internal/plaid"
)

// accountService handles provider-backed account records.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// UpsertProviderAccounts writes the accounts reported for a linked item,
// keyed by (user, external account id). Existing rows get fresh names and
// balances; new rows are created active.
func (s *accountService) UpsertProviderAccounts(userID, linkedItemID string, accounts []plaid.Account) ([]models.Account, error) {
	if len(accounts) == 0 {
		return []models.Account{}, nil
	}

	now := time.Now()
	rows := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.AccountID == "" {
			continue
		}
		currency := a.Balances.ISOCurrencyCode
		if currency == "" {
			currency = a.Balances.UnofficialCurrencyCode
		}
		if currency == "" {
			currency = "USD"
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = a.OfficialName
		}
		rows = append(rows, models.Account{
			UserID:            userID,
			LinkedItemID:      linkedItemID,
			ExternalAccountID: a.AccountID,
			Name:              name,
			Mask:              a.Mask,
			OfficialName:      a.OfficialName,
			Type:              a.Type,
			Subtype:           a.Subtype,
			CurrentBalance:    a.Balances.Current,
			AvailableBalance:  a.Balances.Available,
			CurrencyCode:      strings.ToUpper(currency),
			IsActive:          true,
			LastUpdated:       now,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "external_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"linked_item_id", "name", "mask", "official_name", "type", "subtype",
				"current_balance", "available_balance", "currency_code", "is_active",
				"last_updated", "updated_at",
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Re-read so conflicting rows carry their stored ids.
	return s.GetAccountsForItem(linkedItemID)
}

// GetAccountsForUser returns every account of a user.
func (s *accountService) GetAccountsForUser(userID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetActiveAccountsForUser returns the active accounts of a user.
func (s *accountService) GetActiveAccountsForUser(userID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccountsForItem returns the accounts under one linked item.
func (s *accountService) GetAccountsForItem(linkedItemID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.Where("linked_item_id = ?", linkedItemID).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}
