// Package models holds the gorm models backing the goze schema.
package models

import (
	"fmt"
	"time"

	"goze/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the key and timestamps shared by the soft-deletable tables.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUIDv7 key and rejects caller-supplied keys that
// would not fit a postgres uuid column.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	return assignID(&b.ID)
}

func assignID(id *string) error {
	if *id == "" {
		*id = uuid.New()
		return nil
	}
	normalized, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid primary key %q: %w", *id, err)
	}
	*id = normalized
	return nil
}
