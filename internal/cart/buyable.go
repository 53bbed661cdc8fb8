package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/shopspring/decimal"
)

const defaultItemName = "Product"

// Buyable is any priced entity that can be referenced by a cart line.
type Buyable interface {
	BuyableType() string
	BuyableID() int64
	BuyableName() string
	BuyablePrice() decimal.Decimal
}

// TaxRated buyables override the default tax rate for new lines.
type TaxRated interface {
	BuyableTaxRate() (decimal.Decimal, bool)
}

// Conditioned buyables seed new lines with item-level conditions.
type Conditioned interface {
	BuyableConditions() []ItemCondition
}

// BuyableRef is a plain-field Buyable.
type BuyableRef struct {
	Type       string
	ID         int64
	Name       string
	Price      decimal.Decimal
	TaxRate    *decimal.Decimal
	Conditions []ItemCondition
}

func (b BuyableRef) BuyableType() string           { return b.Type }
func (b BuyableRef) BuyableID() int64              { return b.ID }
func (b BuyableRef) BuyableName() string           { return b.Name }
func (b BuyableRef) BuyablePrice() decimal.Decimal { return b.Price }

func (b BuyableRef) BuyableTaxRate() (decimal.Decimal, bool) {
	if b.TaxRate == nil {
		return decimal.Zero, false
	}
	return *b.TaxRate, true
}

func (b BuyableRef) BuyableConditions() []ItemCondition {
	return b.Conditions
}

// RefOf snapshots any Buyable into a BuyableRef so no live handle is retained.
func RefOf(b Buyable) BuyableRef {
	if ref, ok := b.(BuyableRef); ok {
		return ref
	}
	if ref, ok := b.(*BuyableRef); ok && ref != nil {
		return *ref
	}
	ref := BuyableRef{
		Type:  b.BuyableType(),
		ID:    b.BuyableID(),
		Name:  b.BuyableName(),
		Price: b.BuyablePrice(),
	}
	if rated, ok := b.(TaxRated); ok {
		if rate, ok := rated.BuyableTaxRate(); ok {
			ref.TaxRate = &rate
		}
	}
	if conditioned, ok := b.(Conditioned); ok {
		ref.Conditions = append([]ItemCondition{}, conditioned.BuyableConditions()...)
	}
	return ref
}

// BuyableFromMap decodes a field map (buyable_type, buyable_id, name, price and
// optionally tax_rate and conditions). A "buyable" entry holding the live
// entity is dropped.
func BuyableFromMap(fields map[string]any) (BuyableRef, error) {
	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "buyable" {
			continue
		}
		clean[k] = v
	}

	var ref BuyableRef
	typ, _ := clean["buyable_type"].(string)
	ref.Type = strings.TrimSpace(typ)
	if ref.Type == "" {
		return ref, pkgerrors.New(pkgerrors.CodeValidation, "buyable_type is required")
	}

	id, err := int64Field(clean["buyable_id"])
	if err != nil {
		return ref, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "buyable_id must be an integer")
	}
	ref.ID = id

	if name, ok := clean["name"].(string); ok {
		ref.Name = name
	}

	if raw, ok := clean["price"]; ok && raw != nil {
		price, err := decimalField(raw)
		if err != nil {
			return ref, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price must be numeric")
		}
		ref.Price = price
	}

	if raw, ok := clean["tax_rate"]; ok && raw != nil {
		rate, err := decimalField(raw)
		if err != nil {
			return ref, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "tax_rate must be numeric")
		}
		ref.TaxRate = &rate
	}

	if raw, ok := clean["conditions"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return ref, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "conditions are not encodable")
		}
		if err := json.Unmarshal(encoded, &ref.Conditions); err != nil {
			return ref, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "conditions are malformed")
		}
	}
	return ref, nil
}

// BuyableResolver bulk-loads entities of one buyable type, keyed by id.
type BuyableResolver interface {
	ResolveBuyables(ctx context.Context, ids []int64) (map[int64]any, error)
}

// BuyableResolverFunc adapts a function to BuyableResolver.
type BuyableResolverFunc func(ctx context.Context, ids []int64) (map[int64]any, error)

func (f BuyableResolverFunc) ResolveBuyables(ctx context.Context, ids []int64) (map[int64]any, error) {
	return f(ctx, ids)
}

func int64Field(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func decimalField(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", raw)
	}
}
