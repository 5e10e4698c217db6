package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "goze/internal/errors"
	"goze/internal/models"
)

// itemService stores linked items and their sync cursors.
type itemService struct {
	db *gorm.DB
}

// NewItemService creates a new ItemServicer.
func NewItemService(db *gorm.DB) ItemServicer {
	return &itemService{db: db}
}

// SaveOrUpdateItem inserts the item or, when the provider item id is already
// known for the same user, refreshes its credential and institution and
// reactivates it. The cursor of an existing item is kept.
func (s *itemService) SaveOrUpdateItem(item *models.LinkedItem) (*models.LinkedItem, error) {
	if item.UserID == "" || item.ItemID == "" || item.AccessToken == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user, item id and access token are required")
	}

	var existing models.LinkedItem
	err := s.db.Where("item_id = ?", item.ItemID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item.IsActive = true
		if err := s.db.Create(item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.ErrDuplicateResource
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return item, nil
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if existing.UserID != item.UserID {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateResource, "Item is linked to another user")
	}

	updates := map[string]interface{}{
		"access_token":     item.AccessToken,
		"institution_id":   item.InstitutionID,
		"institution_name": item.InstitutionName,
		"is_active":        true,
	}
	if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &existing, nil
}

// GetItemByID retrieves a linked item by its local id.
func (s *itemService) GetItemByID(id string) (*models.LinkedItem, error) {
	var item models.LinkedItem
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, itemNotFoundOr(err)
	}
	return &item, nil
}

// GetUserItem retrieves a linked item owned by userID.
func (s *itemService) GetUserItem(userID, id string) (*models.LinkedItem, error) {
	var item models.LinkedItem
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		return nil, itemNotFoundOr(err)
	}
	return &item, nil
}

// ListItemsForUser returns every item of a user, active or not.
func (s *itemService) ListItemsForUser(userID string) ([]models.LinkedItem, error) {
	var items []models.LinkedItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// ListActiveItems returns every active item across all users.
func (s *itemService) ListActiveItems() ([]models.LinkedItem, error) {
	var items []models.LinkedItem
	if err := s.db.Where("is_active = ?", true).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// ListActiveItemsForUser returns the active items of one user.
func (s *itemService) ListActiveItemsForUser(userID string) ([]models.LinkedItem, error) {
	var items []models.LinkedItem
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// UpdateCursor persists the next sync position and stamps the sync time.
func (s *itemService) UpdateCursor(id, cursor string) error {
	res := s.db.Model(&models.LinkedItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"cursor":         cursor,
		"last_synced_at": time.Now(),
	})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrItemNotFound
	}
	return nil
}

// Deactivate marks an item inactive so scheduled syncs skip it.
func (s *itemService) Deactivate(id string) error {
	res := s.db.Model(&models.LinkedItem{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrItemNotFound
	}
	return nil
}

func itemNotFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrItemNotFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
