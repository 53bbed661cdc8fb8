package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/shoppingcart/internal/cart"
)

// DefaultKey is the namespace root used when none is configured.
const DefaultKey = "shopping_cart"

// Storage keeps each snapshot as JSON under "{key}.{identifier}.{instance}".
type Storage struct {
	store Store
	key   string
}

var _ cart.Storage = (*Storage)(nil)

func New(store Store, key string) (*Storage, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &Storage{store: store, key: key}, nil
}

func (s *Storage) keyFor(identifier, instance string) string {
	return s.key + "." + identifier + "." + cart.InstanceOrDefault(instance)
}

func (s *Storage) Get(ctx context.Context, identifier, instance string) (*cart.Snapshot, error) {
	raw, ok, err := s.store.Get(ctx, s.keyFor(identifier, instance))
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var snapshot cart.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *Storage) Put(ctx context.Context, identifier string, snapshot cart.Snapshot, instance string) error {
	if snapshot.Items == nil {
		snapshot.Items = []cart.ItemRecord{}
	}
	if snapshot.Metadata == nil {
		snapshot.Metadata = map[string]any{}
	}
	if snapshot.Conditions == nil {
		snapshot.Conditions = map[string]cart.Condition{}
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	return s.store.Put(ctx, s.keyFor(identifier, instance), raw)
}

func (s *Storage) Has(ctx context.Context, identifier, instance string) (bool, error) {
	return s.store.Has(ctx, s.keyFor(identifier, instance))
}

func (s *Storage) Forget(ctx context.Context, identifier, instance string) error {
	return s.store.Forget(ctx, s.keyFor(identifier, instance))
}

// Flush forgets the namespace root and everything below it.
func (s *Storage) Flush(ctx context.Context) error {
	return s.store.Forget(ctx, s.key)
}
