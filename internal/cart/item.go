package cart

import (
	"github.com/angelmondragon/shoppingcart/pkg/currency"
	"github.com/shopspring/decimal"
)

const (
	moneyPlaces = 2
	ratePlaces  = 4
)

// TaxPolicy is the tax configuration captured when a cart is opened.
type TaxPolicy struct {
	Enabled     bool
	Included    bool
	DefaultRate decimal.Decimal
}

// Item is one priced line. Name and Price are copied from the buyable when
// the line is created and never follow later changes to the source entity.
type Item struct {
	ID          string
	BuyableType string
	BuyableID   int64
	Name        string
	Quantity    int
	Price       decimal.Decimal
	Attributes  map[string]any
	Conditions  []ItemCondition
	TaxRate     decimal.Decimal

	// Buyable is populated by Cart.LoadBuyables and is never persisted.
	Buyable any
}

// ItemRecord is the persisted shape of an Item.
type ItemRecord struct {
	ID          string              `json:"id"`
	BuyableType string              `json:"buyable_type"`
	BuyableID   int64               `json:"buyable_id"`
	Name        string              `json:"name"`
	Quantity    int                 `json:"quantity"`
	Price       decimal.Decimal     `json:"price"`
	Attributes  map[string]any      `json:"attributes"`
	Conditions  []ItemCondition     `json:"conditions"`
	TaxRate     decimal.NullDecimal `json:"tax_rate"`
}

// ItemSummary is an ItemRecord plus its computed amounts.
type ItemSummary struct {
	ItemRecord
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Buyable  any             `json:"buyable,omitempty"`
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// roundRate matches the precision tax rates are stored with.
func roundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(ratePlaces)
}

// Subtotal is price times quantity.
func (i *Item) Subtotal() decimal.Decimal {
	return round(i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))))
}

// Tax is zero when tax is disabled. Tax-inclusive prices are backed out as
// subtotal - subtotal/(1+rate); otherwise the tax is subtotal*rate.
func (i *Item) Tax(policy TaxPolicy) decimal.Decimal {
	if !policy.Enabled {
		return decimal.Zero
	}
	subtotal := i.Subtotal()
	if policy.Included {
		divisor := decimal.NewFromInt(1).Add(i.TaxRate)
		if divisor.IsZero() {
			return decimal.Zero
		}
		return round(subtotal.Sub(subtotal.DivRound(divisor, 16)))
	}
	return round(subtotal.Mul(i.TaxRate))
}

// Total applies the line's own discounts and fees. Tax is added only when
// prices exclude it.
func (i *Item) Total(policy TaxPolicy) decimal.Decimal {
	total := i.Subtotal().
		Sub(i.ConditionTotal(ConditionDiscount)).
		Add(i.ConditionTotal(ConditionFee))
	if !policy.Included {
		total = total.Add(i.Tax(policy))
	}
	return round(total)
}

// ConditionTotal sums the line's conditions of type t. Percentage values, and
// values targeting "percentage", resolve against the line subtotal.
func (i *Item) ConditionTotal(t ConditionType) decimal.Decimal {
	sum := decimal.Zero
	subtotal := i.Subtotal()
	for _, c := range i.Conditions {
		if c.Type != t {
			continue
		}
		if c.Target == TargetPercentage && !c.Value.IsPercentage() {
			sum = sum.Add(Percentage(c.Value.Amount()).Resolve(subtotal))
			continue
		}
		sum = sum.Add(c.Value.Resolve(subtotal))
	}
	return round(sum)
}

func (i *Item) FormattedPrice(f currency.Formatter) string {
	return f.Format(i.Price)
}

func (i *Item) FormattedSubtotal(f currency.Formatter) string {
	return f.Format(i.Subtotal())
}

func (i *Item) FormattedTax(f currency.Formatter, policy TaxPolicy) string {
	return f.Format(i.Tax(policy))
}

func (i *Item) FormattedTotal(f currency.Formatter, policy TaxPolicy) string {
	return f.Format(i.Total(policy))
}

// Record returns a detached copy suitable for persistence.
func (i *Item) Record() ItemRecord {
	return ItemRecord{
		ID:          i.ID,
		BuyableType: i.BuyableType,
		BuyableID:   i.BuyableID,
		Name:        i.Name,
		Quantity:    i.Quantity,
		Price:       i.Price,
		Attributes:  cloneMap(i.Attributes),
		Conditions:  append([]ItemCondition{}, i.Conditions...),
		TaxRate:     decimal.NewNullDecimal(i.TaxRate),
	}
}

// Summary returns the record with computed subtotal, tax and total.
func (i *Item) Summary(policy TaxPolicy) ItemSummary {
	return ItemSummary{
		ItemRecord: i.Record(),
		Subtotal:   i.Subtotal(),
		Tax:        i.Tax(policy),
		Total:      i.Total(policy),
		Buyable:    i.Buyable,
	}
}

// itemFromRecord rebuilds an Item, defaulting a missing tax rate from policy.
func itemFromRecord(r ItemRecord, policy TaxPolicy) *Item {
	item := &Item{
		ID:          r.ID,
		BuyableType: r.BuyableType,
		BuyableID:   r.BuyableID,
		Name:        r.Name,
		Quantity:    r.Quantity,
		Price:       r.Price,
		Attributes:  cloneMap(r.Attributes),
		Conditions:  append([]ItemCondition{}, r.Conditions...),
		TaxRate:     policy.DefaultRate,
	}
	if r.TaxRate.Valid {
		item.TaxRate = r.TaxRate.Decimal
	}
	if item.ID == "" {
		item.ID = newItemID()
	}
	if item.Attributes == nil {
		item.Attributes = map[string]any{}
	}
	return item
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
