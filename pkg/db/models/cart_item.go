package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemRecord is one line of a CartRecord. It holds data only; pricing
// is computed by the cart domain from these fields.
type CartItemRecord struct {
	CartID      uuid.UUID       `gorm:"column:cart_id;type:uuid;primaryKey"`
	ID          string          `gorm:"column:id;primaryKey"`
	BuyableType string          `gorm:"column:buyable_type;not null;index:idx_cart_items_buyable,priority:1"`
	BuyableID   int64           `gorm:"column:buyable_id;not null;index:idx_cart_items_buyable,priority:2"`
	Name        string          `gorm:"column:name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(15,2);not null"`
	Attributes  JSON            `gorm:"column:attributes;type:jsonb"`
	Conditions  JSON            `gorm:"column:conditions;type:jsonb"`
	TaxRate     decimal.Decimal `gorm:"column:tax_rate;type:numeric(8,4);not null"`
	Position    int             `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
