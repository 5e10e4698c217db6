package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "goze/internal/errors"
	"goze/internal/logger"
	"goze/internal/models"
	"goze/internal/pagination"
	"goze/internal/plaid"
)

// UnknownAccountName labels transactions whose account row is gone.
const UnknownAccountName = "Unknown Account"

const providerDateLayout = "2006-01-02"

// Reconcile stages, reported in RecordError.Stage.
const (
	StageAdded    = "added"
	StageModified = "modified"
	StageRemoved  = "removed"
)

// providerColumns are the columns a sync may write on an existing row.
var providerColumns = []string{
	"amount", "currency_code", "date", "name", "merchant_name",
	"pending", "category", "location", "payment_meta", "updated_at",
}

// transactionService handles reconciliation and the transaction read side.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// Reconcile applies one change-feed page to the user's transactions: added,
// then modified, then removed, all in one database transaction. Each record
// runs in its own savepoint so a bad record is rolled back and skipped while
// the rest of the page commits. The cursor is left to the caller.
func (s *transactionService) Reconcile(userID, accountID string, page *plaid.SyncResponse) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	if page == nil {
		return result, nil
	}
	if userID == "" || accountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user and account are required")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range page.Added {
			s.applyRecord(tx, userID, accountID, &page.Added[i], StageAdded, result)
		}
		for i := range page.Modified {
			s.applyRecord(tx, userID, accountID, &page.Modified[i], StageModified, result)
		}

		ids := removedIDs(page.Removed)
		if len(ids) == 0 {
			return nil
		}
		res := tx.
			Where("user_id = ? AND provider_transaction_id IN ?", userID, ids).
			Delete(&models.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		result.Removed = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return result, nil
}

// applyRecord upserts one provider record inside a savepoint and tallies the
// outcome. An "added" record that already exists is left alone; a "modified"
// record only touches provider columns, or is inserted when unknown.
func (s *transactionService) applyRecord(tx *gorm.DB, userID, accountID string, rec *plaid.Transaction, stage string, result *ReconcileResult) {
	var outcome *int
	err := tx.Transaction(func(sp *gorm.DB) error {
		incoming, err := fromProvider(userID, accountID, rec)
		if err != nil {
			return err
		}

		var existing models.Transaction
		err = sp.Where("user_id = ? AND provider_transaction_id = ?", userID, incoming.ProviderTransactionID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := sp.Create(incoming).Error; err != nil {
				return err
			}
			outcome = &result.Added
		case err != nil:
			return err
		case stage == StageAdded:
			outcome = &result.Unchanged
		default:
			existing.ProviderFields(incoming)
			if err := sp.Model(&existing).Select(providerColumns).Updates(&existing).Error; err != nil {
				return err
			}
			outcome = &result.Updated
		}
		return nil
	})
	if err != nil {
		logger.Get().Warnw("skipping provider transaction",
			"user_id", userID,
			"account_id", accountID,
			"provider_transaction_id", rec.TransactionID,
			"stage", stage,
			"error", err,
		)
		result.Skipped++
		result.Errors = append(result.Errors, RecordError{
			ProviderTransactionID: rec.TransactionID,
			Stage:                 stage,
			Error:                 err.Error(),
		})
		return
	}
	*outcome++
}

// fromProvider converts a provider record into a new local transaction with
// user-owned fields left at their defaults.
func fromProvider(userID, accountID string, rec *plaid.Transaction) (*models.Transaction, error) {
	if strings.TrimSpace(rec.TransactionID) == "" {
		return nil, errors.New("missing transaction_id")
	}
	date, err := time.Parse(providerDateLayout, rec.Date)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", rec.Date, err)
	}
	if rec.PersonalFinanceCategory == nil || rec.PersonalFinanceCategory.Primary == "" {
		return nil, errors.New("missing personal_finance_category")
	}

	location, err := encodeBlob(rec.Location)
	if err != nil {
		return nil, fmt.Errorf("encoding location: %w", err)
	}
	paymentMeta, err := encodeBlob(rec.PaymentMeta)
	if err != nil {
		return nil, fmt.Errorf("encoding payment_meta: %w", err)
	}

	currency := rec.ISOCurrencyCode
	if currency == "" {
		currency = rec.UnofficialCurrencyCode
	}

	return &models.Transaction{
		UserID:                userID,
		AccountID:             accountID,
		ProviderTransactionID: rec.TransactionID,
		Amount:                rec.Amount,
		CurrencyCode:          currency,
		Date:                  date,
		Name:                  rec.Name,
		MerchantName:          rec.MerchantName,
		Pending:               rec.Pending,
		Category:              rec.PersonalFinanceCategory.Primary,
		Location:              location,
		PaymentMeta:           paymentMeta,
	}, nil
}

// encodeBlob stores an optional provider object as JSON text; nil is empty.
func encodeBlob[T any](v *T) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func removedIDs(removed []plaid.RemovedTransaction) []string {
	seen := make(map[string]struct{}, len(removed))
	ids := make([]string, 0, len(removed))
	for _, r := range removed {
		if r.TransactionID == "" {
			continue
		}
		if _, ok := seen[r.TransactionID]; ok {
			continue
		}
		seen[r.TransactionID] = struct{}{}
		ids = append(ids, r.TransactionID)
	}
	return ids
}

// GetTransactionsForUser retrieves a paginated list of a user's transactions,
// newest first, with account names.
func (s *transactionService) GetTransactionsForUser(userID string, page pagination.PageRequest) (*pagination.PageResponse[TransactionView], error) {
	page.Normalize()

	var totalItems int64
	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Preload("Account").
		Order("date DESC, created_at DESC").
		Scopes(page.Scope()).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPage(toViews(transactions), page, totalItems), nil
}

// GetExpenseTransactionsForUser returns the user's outflows (negative
// amounts), newest first.
func (s *transactionService) GetExpenseTransactionsForUser(userID string) ([]TransactionView, error) {
	var transactions []models.Transaction
	if err := s.db.Preload("Account").
		Where("user_id = ? AND amount < 0", userID).
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return toViews(transactions), nil
}

// GetPendingTransactionsForUser returns transactions not yet posted.
func (s *transactionService) GetPendingTransactionsForUser(userID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ? AND pending = ?", userID, true).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetTransactionsInRange returns transactions dated within [from, to].
func (s *transactionService) GetTransactionsInRange(userID string, from, to time.Time) ([]models.Transaction, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "range end is before its start")
	}
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateNotes sets the user's free-text notes on a transaction.
func (s *transactionService) UpdateNotes(userID, transactionID, notes string) (*models.Transaction, error) {
	return s.updateUserField(userID, transactionID, "notes", notes)
}

// SetExcludedFromBudget flags a transaction in or out of budgeting.
func (s *transactionService) SetExcludedFromBudget(userID, transactionID string, excluded bool) (*models.Transaction, error) {
	return s.updateUserField(userID, transactionID, "excluded_from_budget", excluded)
}

func (s *transactionService) updateUserField(userID, transactionID, column string, value interface{}) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(transaction).Update(column, value).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetTransactionByID(userID, transactionID)
}

func toViews(transactions []models.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(transactions))
	for _, t := range transactions {
		name := UnknownAccountName
		if t.Account != nil && t.Account.Name != "" {
			name = t.Account.Name
		}
		views = append(views, TransactionView{Transaction: t, AccountName: name})
	}
	return views
}
