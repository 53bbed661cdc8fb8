package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/angelmondragon/shoppingcart/pkg/config"
	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type course struct {
	id    int64
	title string
	fee   decimal.Decimal
}

func (c *course) BuyableType() string           { return "course" }
func (c *course) BuyableID() int64              { return c.id }
func (c *course) BuyableName() string           { return c.title }
func (c *course) BuyablePrice() decimal.Decimal { return c.fee }
func (c *course) BuyableTaxRate() (decimal.Decimal, bool) {
	return decimal.RequireFromString("0.05"), true
}

func TestRefOfSnapshotsOptionalCapabilities(t *testing.T) {
	ref := RefOf(&course{id: 3, title: "Go", fee: decimal.NewFromInt(40)})
	assert.Equal(t, "course", ref.Type)
	assert.Equal(t, int64(3), ref.ID)
	require.NotNil(t, ref.TaxRate)
	assert.Equal(t, "0.05", ref.TaxRate.String())
	assert.Empty(t, ref.Conditions)
}

func TestCartAddUsesBuyableTaxRate(t *testing.T) {
	c := openCart(t, newMemStorage(), exclusiveTax("0.2"))
	item, err := c.Add(context.Background(), &course{id: 1, title: "Go", fee: decimal.NewFromInt(100)}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.05", item.TaxRate.String())
	assert.True(t, decimal.NewFromInt(105).Equal(c.Total()))
}

func TestBuyableFromMap(t *testing.T) {
	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"buyable_type": "product",
		"buyable_id": 42,
		"name": "Lamp",
		"price": "19.90",
		"tax_rate": 0.1,
		"conditions": [{"type": "discount", "value": "5%", "target": "subtotal"}]
	}`), &fields))
	fields["buyable"] = struct{ Heavy []byte }{Heavy: make([]byte, 1024)}

	ref, err := BuyableFromMap(fields)
	require.NoError(t, err)
	assert.Equal(t, "product", ref.Type)
	assert.Equal(t, int64(42), ref.ID)
	assert.Equal(t, "Lamp", ref.Name)
	assert.Equal(t, "19.9", ref.Price.String())
	require.NotNil(t, ref.TaxRate)
	assert.Equal(t, "0.1", ref.TaxRate.String())
	require.Len(t, ref.Conditions, 1)
	assert.True(t, ref.Conditions[0].Value.IsPercentage())
	_, kept := fields["buyable"]
	assert.True(t, kept, "input map is not mutated")
}

func TestBuyableFromMapValidation(t *testing.T) {
	cases := []map[string]any{
		{"buyable_id": 1},
		{"buyable_type": "product", "buyable_id": "abc"},
		{"buyable_type": "product", "buyable_id": 1.5},
		{"buyable_type": "product", "buyable_id": 1, "price": "ten"},
		{"buyable_type": "product", "buyable_id": 1, "tax_rate": true},
		{"buyable_type": "product", "buyable_id": 1, "conditions": "nope"},
	}
	for _, fields := range cases {
		_, err := BuyableFromMap(fields)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%v", fields)
	}
}

func TestSettingsFromAccessor(t *testing.T) {
	provider := config.MapProvider{
		"tax.enabled":                  true,
		"tax.default_rate":             "0.0825",
		"tax.included_in_price":        "true",
		"limits.max_items":             10,
		"limits.max_quantity_per_item": 5.0,
		"currency.code":                "EUR",
		"currency.symbol":              "€",
		"currency.decimals":            2,
		"currency.decimal_separator":   ",",
		"currency.thousand_separator":  ".",
	}
	s := SettingsFrom(config.NewAccessor(provider))
	assert.True(t, s.Tax.Enabled)
	assert.True(t, s.Tax.Included)
	assert.Equal(t, "0.0825", s.Tax.DefaultRate.String())
	assert.Equal(t, Limits{MaxItems: 10, MaxQuantity: 5}, s.Limits)
	assert.Equal(t, "EUR", s.Currency.Code)
	assert.Equal(t, "€1.000,00", s.Currency.Format(decimal.NewFromInt(1000)))
}

func TestSettingsFromNilAccessorUsesDefaults(t *testing.T) {
	assert.Equal(t, DefaultSettings(), SettingsFrom(nil))
}
