package session

import (
	"context"
	"testing"

	"github.com/angelmondragon/shoppingcart/internal/cart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() cart.Snapshot {
	return cart.Snapshot{
		Items: []cart.ItemRecord{{
			ID:          "item-1",
			BuyableType: "product",
			BuyableID:   4,
			Name:        "Mug",
			Quantity:    2,
			Price:       decimal.RequireFromString("8.50"),
			Attributes:  map[string]any{"color": "blue"},
			Conditions:  []cart.ItemCondition{{Type: cart.ConditionDiscount, Value: cart.Percentage(decimal.NewFromInt(10)), Target: cart.TargetSubtotal}},
			TaxRate:     decimal.NewNullDecimal(decimal.RequireFromString("0.07")),
		}},
		Metadata: map[string]any{"coupon": "SAVE"},
		Conditions: map[string]cart.Condition{
			"coupon": {Name: "coupon", Type: cart.ConditionDiscount, Value: cart.Literal(decimal.NewFromInt(3)), Target: cart.TargetSubtotal, Rules: map[string]any{}},
		},
	}
}

func TestNewValidatesStoreAndDefaultsKey(t *testing.T) {
	_, err := New(nil, "x")
	require.Error(t, err)

	s, err := New(NewMemoryStore(), " ")
	require.NoError(t, err)
	assert.Equal(t, "shopping_cart.abc.default", s.keyFor("abc", ""))
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	s, err := New(mem, "cart")
	require.NoError(t, err)

	got, err := s.Get(ctx, "user_1", "default")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Put(ctx, "user_1", sampleSnapshot(), "default"))
	has, err := mem.Has(ctx, "cart.user_1.default")
	require.NoError(t, err)
	assert.True(t, has)

	got, err = s.Get(ctx, "user_1", "default")
	require.NoError(t, err)
	require.NotNil(t, got)

	want := sampleSnapshot()
	require.Len(t, got.Items, 1)
	assert.Equal(t, want.Items[0].ID, got.Items[0].ID)
	assert.True(t, want.Items[0].Price.Equal(got.Items[0].Price))
	assert.True(t, got.Items[0].TaxRate.Valid)
	assert.Equal(t, "0.07", got.Items[0].TaxRate.Decimal.String())
	assert.Equal(t, want.Items[0].Attributes, got.Items[0].Attributes)
	assert.True(t, got.Items[0].Conditions[0].Value.IsPercentage())
	assert.Equal(t, want.Metadata, got.Metadata)
	assert.Equal(t, "3", got.Conditions["coupon"].Value.String())
}

func TestStorageReadsThroughCart(t *testing.T) {
	ctx := context.Background()
	s, err := New(NewMemoryStore(), "")
	require.NoError(t, err)

	settings := cart.DefaultSettings()
	settings.Tax.DefaultRate = decimal.RequireFromString("0.05")
	c, err := cart.New(ctx, cart.Params{Storage: s, Identifier: "sess", Settings: settings})
	require.NoError(t, err)
	item, err := c.Add(ctx, cart.BuyableRef{Type: "product", ID: 1, Name: "Pen", Price: decimal.NewFromInt(2)}, 3, map[string]any{"ink": "black"})
	require.NoError(t, err)

	reloaded, err := cart.New(ctx, cart.Params{Storage: s, Identifier: "sess", Settings: settings})
	require.NoError(t, err)
	require.NotNil(t, reloaded.Get(item.ID))
	assert.Equal(t, item.Record(), reloaded.Get(item.ID).Record())
	assert.True(t, c.Total().Equal(reloaded.Total()))
}

func TestStorageInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, err := New(NewMemoryStore(), "cart")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "u", sampleSnapshot(), "default"))
	has, err := s.Has(ctx, "u", "wishlist")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Put(ctx, "u", cart.Snapshot{}, "wishlist"))
	require.NoError(t, s.Forget(ctx, "u", "wishlist"))

	has, err = s.Has(ctx, "u", "default")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = s.Has(ctx, "u", "wishlist")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPutNormalizesNilCollections(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	s, err := New(mem, "cart")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "u", cart.Snapshot{}, ""))
	raw, ok, err := mem.Get(ctx, "cart.u.default")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"items":[],"metadata":{},"conditions":{}}`, string(raw))
}

func TestFlushClearsNamespaceOnly(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	s, err := New(mem, "cart")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "a", cart.Snapshot{}, ""))
	require.NoError(t, s.Put(ctx, "b", cart.Snapshot{}, "wishlist"))
	require.NoError(t, mem.Put(ctx, "cartography", []byte("keep")))
	require.NoError(t, mem.Put(ctx, "other.key", []byte("keep")))

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 2, mem.Len())
	has, err := s.Has(ctx, "a", "")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, mem.Put(ctx, "k", value))
	value[0] = 'z'

	got, ok, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))
}
