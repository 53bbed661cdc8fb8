package models

import (
	"time"

	"github.com/google/uuid"
)

// CartRecord is the persisted header row of one (identifier, instance) cart.
type CartRecord struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Identifier string     `gorm:"column:identifier;not null;uniqueIndex:uq_carts_identifier_instance,priority:1"`
	Instance   string     `gorm:"column:instance;not null;default:'default';uniqueIndex:uq_carts_identifier_instance,priority:2"`
	Metadata   JSON       `gorm:"column:metadata;type:jsonb"`
	Conditions JSON       `gorm:"column:conditions;type:jsonb"`
	ExpiresAt  *time.Time `gorm:"column:expires_at;index"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
