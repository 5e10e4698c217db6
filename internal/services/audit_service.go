package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "goze/internal/errors"
	"goze/internal/logger"
	"goze/internal/models"
)

// Audit actions.
const (
	AuditLogin        = "LOGIN"
	AuditLoginFailed  = "LOGIN_FAILED"
	AuditRegister     = "REGISTER"
	AuditTokenRefresh = "TOKEN_REFRESH"
	AuditItemLinked   = "PLAID_ITEM_LINKED"
)

const maxAuditEntries = 500

// AuditEvent is one security-relevant occurrence. Details is stored as JSON.
type AuditEvent struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Details      map[string]interface{}
}

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record persists e. Failures are logged and swallowed: losing an audit
// row must not fail the login or link that produced it.
func (s *auditService) Record(e AuditEvent) {
	entry := &models.AuditLog{
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		IPAddress:    e.IPAddress,
	}
	if len(e.Details) > 0 {
		data, err := json.Marshal(e.Details)
		if err != nil {
			logger.Named("audit").Warnw("dropping unencodable audit details", "error", err, "action", e.Action)
		} else {
			entry.Changes = string(data)
		}
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Named("audit").Errorw("failed to record audit event",
			"error", err,
			"user_id", e.UserID,
			"action", e.Action,
			"resource_id", e.ResourceID,
		)
	}
}

// ListForUser returns the user's most recent events, newest first. A
// non-positive or oversized limit is clamped.
func (s *auditService) ListForUser(userID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > maxAuditEntries {
		limit = maxAuditEntries
	}
	var entries []models.AuditLog
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}
