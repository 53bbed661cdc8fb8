package database

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shoppingcart/internal/cart"
	pkgdb "github.com/angelmondragon/shoppingcart/pkg/db"
	"github.com/angelmondragon/shoppingcart/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Params configure Storage. A non-positive Expiration keeps carts forever.
type Params struct {
	DB         txRunner
	Tables     Tables
	Expiration time.Duration
	Now        func() time.Time
}

// Storage normalizes snapshots into a cart row plus one row per item.
type Storage struct {
	db         txRunner
	repo       *Repository
	expiration time.Duration
	now        func() time.Time
}

var _ cart.Storage = (*Storage)(nil)

func New(params Params) (*Storage, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Storage{
		db:         params.DB,
		repo:       NewRepository(params.DB.DB(), params.Tables),
		expiration: params.Expiration,
		now:        now,
	}, nil
}

func (s *Storage) clock() time.Time {
	return s.now().UTC()
}

func (s *Storage) expiresAt(now time.Time) *time.Time {
	if s.expiration <= 0 {
		return nil
	}
	t := now.Add(s.expiration)
	return &t
}

// Get loads the active cart and slides its expiry forward.
func (s *Storage) Get(ctx context.Context, identifier, instance string) (*cart.Snapshot, error) {
	instance = cart.InstanceOrDefault(instance)
	now := s.clock()

	record, err := s.repo.FindActiveCart(ctx, identifier, instance, now)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	rows, err := s.repo.ListItems(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	snapshot, err := snapshotFromRows(record, rows)
	if err != nil {
		return nil, err
	}

	if expires := s.expiresAt(now); expires != nil {
		if err := s.repo.TouchExpiry(ctx, record.ID, *expires); err != nil {
			return nil, fmt.Errorf("refresh cart expiry: %w", err)
		}
	}
	return snapshot, nil
}

// Put writes the snapshot in one transaction.
func (s *Storage) Put(ctx context.Context, identifier string, snapshot cart.Snapshot, instance string) error {
	instance = cart.InstanceOrDefault(instance)
	now := s.clock()

	metadata, err := models.NewJSON(nonNilMap(snapshot.Metadata))
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	conditions := snapshot.Conditions
	if conditions == nil {
		conditions = map[string]cart.Condition{}
	}
	conditionsJSON, err := models.NewJSON(conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindCart(ctx, identifier, instance)
		if err != nil {
			return err
		}
		if record == nil {
			record = &models.CartRecord{
				Identifier: identifier,
				Instance:   instance,
				Metadata:   metadata,
				Conditions: conditionsJSON,
				ExpiresAt:  s.expiresAt(now),
			}
			if err := repo.CreateCart(ctx, record); err != nil {
				return err
			}
		} else {
			record.Metadata = metadata
			record.Conditions = conditionsJSON
			record.ExpiresAt = s.expiresAt(now)
			if err := repo.UpdateCart(ctx, record, now); err != nil {
				return err
			}
		}

		storedIDs, err := repo.ItemIDs(ctx, record.ID)
		if err != nil {
			return err
		}
		stored := make(map[string]struct{}, len(storedIDs))
		for _, id := range storedIDs {
			stored[id] = struct{}{}
		}

		incoming := make(map[string]struct{}, len(snapshot.Items))
		var inserts, updates []models.CartItemRecord
		for pos, item := range snapshot.Items {
			row, err := rowFromItem(record.ID, item, pos)
			if err != nil {
				return err
			}
			incoming[row.ID] = struct{}{}
			if _, ok := stored[row.ID]; ok {
				updates = append(updates, row)
			} else {
				inserts = append(inserts, row)
			}
		}

		var removed []string
		for _, id := range storedIDs {
			if _, ok := incoming[id]; !ok {
				removed = append(removed, id)
			}
		}

		if err := repo.DeleteItems(ctx, record.ID, removed); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, inserts); err != nil {
			return err
		}
		for _, row := range updates {
			if err := repo.UpdateItem(ctx, row, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was written concurrently")
		}
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Storage) Has(ctx context.Context, identifier, instance string) (bool, error) {
	n, err := s.repo.CountActive(ctx, identifier, cart.InstanceOrDefault(instance), s.clock())
	if err != nil {
		return false, fmt.Errorf("count carts: %w", err)
	}
	return n > 0, nil
}

// Forget deletes the cart row and its items, expired or not.
func (s *Storage) Forget(ctx context.Context, identifier, instance string) error {
	instance = cart.InstanceOrDefault(instance)
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindCart(ctx, identifier, instance)
		if err != nil {
			return fmt.Errorf("find cart: %w", err)
		}
		if record == nil {
			return nil
		}
		return repo.DeleteCarts(ctx, []uuid.UUID{record.ID})
	})
}

func (s *Storage) Flush(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteAll(ctx)
	})
}

// PurgeExpired deletes up to limit carts that expired before cutoff and
// reports how many were removed.
func (s *Storage) PurgeExpired(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	var purged int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ids, err := repo.ExpiredCartIDs(ctx, cutoff.UTC(), limit)
		if err != nil {
			return err
		}
		if err := repo.DeleteCarts(ctx, ids); err != nil {
			return err
		}
		purged = len(ids)
		return nil
	})
	return purged, err
}

func snapshotFromRows(record *models.CartRecord, rows []models.CartItemRecord) (*cart.Snapshot, error) {
	snapshot := &cart.Snapshot{
		Items:      make([]cart.ItemRecord, 0, len(rows)),
		Metadata:   map[string]any{},
		Conditions: map[string]cart.Condition{},
	}
	if err := record.Metadata.Decode(&snapshot.Metadata); err != nil {
		return nil, fmt.Errorf("decode cart metadata: %w", err)
	}
	if err := record.Conditions.Decode(&snapshot.Conditions); err != nil {
		return nil, fmt.Errorf("decode cart conditions: %w", err)
	}
	for _, row := range rows {
		item, err := itemFromRow(row)
		if err != nil {
			return nil, err
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	return snapshot, nil
}

func itemFromRow(row models.CartItemRecord) (cart.ItemRecord, error) {
	item := cart.ItemRecord{
		ID:          row.ID,
		BuyableType: row.BuyableType,
		BuyableID:   row.BuyableID,
		Name:        row.Name,
		Quantity:    row.Quantity,
		Price:       row.Price,
		Attributes:  map[string]any{},
		Conditions:  []cart.ItemCondition{},
		TaxRate:     decimal.NewNullDecimal(row.TaxRate),
	}
	if err := row.Attributes.Decode(&item.Attributes); err != nil {
		return item, fmt.Errorf("decode attributes of item %s: %w", row.ID, err)
	}
	if err := row.Conditions.Decode(&item.Conditions); err != nil {
		return item, fmt.Errorf("decode conditions of item %s: %w", row.ID, err)
	}
	return item, nil
}

func rowFromItem(cartID uuid.UUID, item cart.ItemRecord, position int) (models.CartItemRecord, error) {
	attributes, err := models.NewJSON(nonNilMap(item.Attributes))
	if err != nil {
		return models.CartItemRecord{}, fmt.Errorf("encode attributes of item %s: %w", item.ID, err)
	}
	conditions := item.Conditions
	if conditions == nil {
		conditions = []cart.ItemCondition{}
	}
	conditionsJSON, err := models.NewJSON(conditions)
	if err != nil {
		return models.CartItemRecord{}, fmt.Errorf("encode conditions of item %s: %w", item.ID, err)
	}
	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := models.CartItemRecord{
		CartID:      cartID,
		ID:          id,
		BuyableType: item.BuyableType,
		BuyableID:   item.BuyableID,
		Name:        item.Name,
		Quantity:    item.Quantity,
		Price:       item.Price,
		Attributes:  attributes,
		Conditions:  conditionsJSON,
		Position:    position,
	}
	if item.TaxRate.Valid {
		row.TaxRate = item.TaxRate.Decimal
	}
	return row, nil
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
