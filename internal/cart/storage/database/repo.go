package database

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/shoppingcart/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tables names the two cart tables.
type Tables struct {
	Carts string
	Items string
}

// DefaultTables matches the shipped migration.
func DefaultTables() Tables {
	return Tables{Carts: "carts", Items: "cart_items"}
}

func (t Tables) withDefaults() Tables {
	def := DefaultTables()
	if t.Carts == "" {
		t.Carts = def.Carts
	}
	if t.Items == "" {
		t.Items = def.Items
	}
	return t
}

// Repository runs the row-level queries behind Storage.
type Repository struct {
	db     *gorm.DB
	tables Tables
}

// NewRepository binds a repository to db.
func NewRepository(db *gorm.DB, tables Tables) *Repository {
	return &Repository{db: db, tables: tables.withDefaults()}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx, tables: r.tables}
}

func (r *Repository) carts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.tables.Carts)
}

func (r *Repository) items(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.tables.Items)
}

// FindCart returns the row for (identifier, instance) regardless of expiry.
func (r *Repository) FindCart(ctx context.Context, identifier, instance string) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.carts(ctx).
		Where("identifier = ? AND instance = ?", identifier, instance).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindActiveCart skips rows whose expires_at is not after now.
func (r *Repository) FindActiveCart(ctx context.Context, identifier, instance string, now time.Time) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.carts(ctx).
		Where("identifier = ? AND instance = ?", identifier, instance).
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CountActive counts unexpired rows for (identifier, instance).
func (r *Repository) CountActive(ctx context.Context, identifier, instance string, now time.Time) (int64, error) {
	var n int64
	err := r.carts(ctx).
		Where("identifier = ? AND instance = ?", identifier, instance).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&n).Error
	return n, err
}

func (r *Repository) CreateCart(ctx context.Context, record *models.CartRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.carts(ctx).Create(record).Error
}

// UpdateCart writes metadata, conditions and expiry of an existing row.
func (r *Repository) UpdateCart(ctx context.Context, record *models.CartRecord, now time.Time) error {
	return r.carts(ctx).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"metadata":   record.Metadata,
			"conditions": record.Conditions,
			"expires_at": record.ExpiresAt,
			"updated_at": now,
		}).Error
}

// TouchExpiry slides the expiry window of one cart.
func (r *Repository) TouchExpiry(ctx context.Context, cartID uuid.UUID, expiresAt time.Time) error {
	return r.carts(ctx).
		Where("id = ?", cartID).
		Update("expires_at", expiresAt).Error
}

// ListItems returns a cart's lines in display order.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItemRecord, error) {
	var rows []models.CartItemRecord
	if err := r.items(ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ItemIDs lists the stored line ids of a cart.
func (r *Repository) ItemIDs(ctx context.Context, cartID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.items(ctx).Where("cart_id = ?", cartID).Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.items(ctx).
		Where("cart_id = ? AND id IN ?", cartID, ids).
		Delete(&models.CartItemRecord{}).Error
}

func (r *Repository) CreateItems(ctx context.Context, rows []models.CartItemRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.items(ctx).Create(&rows).Error
}

// UpdateItem rewrites every mutable column of one line.
func (r *Repository) UpdateItem(ctx context.Context, row models.CartItemRecord, now time.Time) error {
	return r.items(ctx).
		Where("cart_id = ? AND id = ?", row.CartID, row.ID).
		Updates(map[string]any{
			"buyable_type": row.BuyableType,
			"buyable_id":   row.BuyableID,
			"name":         row.Name,
			"quantity":     row.Quantity,
			"price":        row.Price,
			"attributes":   row.Attributes,
			"conditions":   row.Conditions,
			"tax_rate":     row.TaxRate,
			"position":     row.Position,
			"updated_at":   now,
		}).Error
}

// DeleteCarts removes the given carts and their items.
func (r *Repository) DeleteCarts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.items(ctx).Where("cart_id IN ?", ids).Delete(&models.CartItemRecord{}).Error; err != nil {
		return err
	}
	return r.carts(ctx).Where("id IN ?", ids).Delete(&models.CartRecord{}).Error
}

// DeleteAll removes every cart and item row.
func (r *Repository) DeleteAll(ctx context.Context) error {
	if err := r.items(ctx).Where("1 = 1").Delete(&models.CartItemRecord{}).Error; err != nil {
		return err
	}
	return r.carts(ctx).Where("1 = 1").Delete(&models.CartRecord{}).Error
}

// ExpiredCartIDs returns up to limit carts whose expiry is before cutoff.
func (r *Repository) ExpiredCartIDs(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.carts(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Pluck("id", &ids).Error
	return ids, err
}
