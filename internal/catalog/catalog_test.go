package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/shoppingcart/internal/cart"
	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
products:
  - type: product
    id: 1
    name: Lamp
    price: 40
  - type: product
    id: 2
    name: Bulb
    price: "2.50"
    tax_rate: 0.2
  - type: service
    id: 1
    name: Install
    price: "15"
coupons:
  - code: save10
    type: percent
    value: 10
  - code: BIG
    type: fixed
    value: "20"
    min_subtotal: "100"
  - code: OLD
    type: fixed
    value: "1"
    expires_at: 2026-01-01T00:00:00Z
`

type memStorage struct{ snaps map[string]cart.Snapshot }

func (m *memStorage) Get(_ context.Context, id, inst string) (*cart.Snapshot, error) {
	s, ok := m.snaps[id+inst]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStorage) Put(_ context.Context, id string, s cart.Snapshot, inst string) error {
	m.snaps[id+inst] = s
	return nil
}

func (m *memStorage) Has(_ context.Context, id, inst string) (bool, error) {
	_, ok := m.snaps[id+inst]
	return ok, nil
}

func (m *memStorage) Forget(_ context.Context, id, inst string) error {
	delete(m.snaps, id+inst)
	return nil
}

func (m *memStorage) Flush(context.Context) error {
	m.snaps = map[string]cart.Snapshot{}
	return nil
}

func parseTest(t *testing.T) *Static {
	t.Helper()
	s, err := Parse([]byte(testCatalog))
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) })
}

func newCart(t *testing.T) *cart.Cart {
	t.Helper()
	c, err := cart.New(context.Background(), cart.Params{
		Storage:    &memStorage{snaps: map[string]cart.Snapshot{}},
		Identifier: "sess",
		Settings:   cart.DefaultSettings(),
	})
	require.NoError(t, err)
	return c
}

func TestParseAndFind(t *testing.T) {
	s := parseTest(t)
	assert.Len(t, s.Products(), 3)

	b, err := s.Find(context.Background(), "product", 2)
	require.NoError(t, err)
	assert.Equal(t, "Bulb", b.BuyableName())
	assert.True(t, decimal.RequireFromString("2.5").Equal(b.BuyablePrice()))
	rate, ok := b.(cart.TaxRated).BuyableTaxRate()
	require.True(t, ok)
	assert.Equal(t, "0.2", rate.String())

	_, ok = s.products[productKey{typ: "product", id: 1}].BuyableTaxRate()
	assert.False(t, ok)

	_, err = s.Find(context.Background(), "product", 99)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := []string{
		"products: [{id: 1, price: 1}]",
		"products: [{type: p, id: 1, price: -1}]",
		"products: [{type: p, id: 1, price: 1}, {type: p, id: 1, price: 2}]",
		"coupons: [{type: percent, value: 1}]",
		"coupons: [{code: X, type: bogus, value: 1}]",
		"products: {",
	}
	for _, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestLoadFallsBackToEmbeddedCatalog(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, s.Products())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	s, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Products(), 3)
}

func TestResolversBulkLoadPerType(t *testing.T) {
	s := parseTest(t)
	resolvers := s.Resolvers()
	require.Contains(t, resolvers, "product")
	require.Contains(t, resolvers, "service")

	found, err := resolvers["product"].ResolveBuyables(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "Lamp", found[1].(Product).Name)
}

func TestCouponValidatorRegistersDiscount(t *testing.T) {
	ctx := context.Background()
	s := parseTest(t)
	c := newCart(t)
	lamp, err := s.Find(ctx, "product", 1)
	require.NoError(t, err)
	_, err = c.Add(ctx, lamp, 2, nil)
	require.NoError(t, err)

	require.NoError(t, c.ApplyCoupon(ctx, "Save10", s.CouponValidator()))
	cond, ok := c.Condition(CouponCondition)
	require.True(t, ok)
	assert.True(t, cond.Value.IsPercentage())
	assert.True(t, decimal.NewFromInt(8).Equal(c.Discount()))
	assert.True(t, decimal.NewFromInt(72).Equal(c.Total()))
}

func TestCouponValidatorRejections(t *testing.T) {
	ctx := context.Background()
	s := parseTest(t)
	c := newCart(t)
	lamp, err := s.Find(ctx, "product", 1)
	require.NoError(t, err)
	_, err = c.Add(ctx, lamp, 1, nil)
	require.NoError(t, err)

	for _, code := range []string{"UNKNOWN", "BIG", "OLD"} {
		err := c.ApplyCoupon(ctx, code, s.CouponValidator())
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidCoupon), code)
	}
	assert.Empty(t, c.Conditions())

	_, err = c.Add(ctx, lamp, 2, nil)
	require.NoError(t, err)
	require.NoError(t, c.ApplyCoupon(ctx, "big", s.CouponValidator()))
	assert.True(t, decimal.NewFromInt(20).Equal(c.Discount()))
}
