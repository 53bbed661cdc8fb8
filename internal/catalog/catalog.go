// Package catalog serves a static product and coupon catalog loaded from YAML.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/shoppingcart/internal/cart"
	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CouponCondition is the cart condition registered for an accepted coupon.
const CouponCondition = "coupon"

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Product is a priced catalog entry and a cart.Buyable.
type Product struct {
	Type    string           `yaml:"type" json:"type"`
	ID      int64            `yaml:"id" json:"id"`
	Name    string           `yaml:"name" json:"name"`
	Price   decimal.Decimal  `yaml:"price" json:"price"`
	TaxRate *decimal.Decimal `yaml:"tax_rate" json:"tax_rate,omitempty"`
}

func (p Product) BuyableType() string           { return p.Type }
func (p Product) BuyableID() int64              { return p.ID }
func (p Product) BuyableName() string           { return p.Name }
func (p Product) BuyablePrice() decimal.Decimal { return p.Price }

func (p Product) BuyableTaxRate() (decimal.Decimal, bool) {
	if p.TaxRate == nil {
		return decimal.Zero, false
	}
	return *p.TaxRate, true
}

type CouponType string

const (
	CouponPercent CouponType = "percent"
	CouponFixed   CouponType = "fixed"
)

// Coupon discounts a cart once its subtotal reaches MinSubtotal.
type Coupon struct {
	Code        string          `yaml:"code"`
	Type        CouponType      `yaml:"type"`
	Value       decimal.Decimal `yaml:"value"`
	MinSubtotal decimal.Decimal `yaml:"min_subtotal"`
	ExpiresAt   *time.Time      `yaml:"expires_at"`
}

func (c Coupon) condition() cart.Condition {
	value := cart.Literal(c.Value)
	if c.Type == CouponPercent {
		value = cart.Percentage(c.Value)
	}
	return cart.Condition{
		Name:   CouponCondition,
		Type:   cart.ConditionDiscount,
		Value:  value,
		Target: cart.TargetSubtotal,
		Rules:  map[string]any{"code": c.Code, "min_subtotal": c.MinSubtotal.String()},
	}
}

type document struct {
	Products []Product `yaml:"products"`
	Coupons  []Coupon  `yaml:"coupons"`
}

type productKey struct {
	typ string
	id  int64
}

// Static is an immutable in-memory catalog.
type Static struct {
	products map[productKey]Product
	order    []productKey
	coupons  map[string]Coupon
	now      func() time.Time
}

// Load reads path, falling back to the embedded catalog when the file does not exist.
func Load(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || path == "" {
		return Parse(defaultCatalog)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Static, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	s := &Static{
		products: make(map[productKey]Product, len(doc.Products)),
		coupons:  make(map[string]Coupon, len(doc.Coupons)),
		now:      time.Now,
	}
	for _, p := range doc.Products {
		p.Type = strings.TrimSpace(p.Type)
		if p.Type == "" {
			return nil, fmt.Errorf("catalog product %d: type is required", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("catalog product %s/%d: price must not be negative", p.Type, p.ID)
		}
		key := productKey{typ: p.Type, id: p.ID}
		if _, dup := s.products[key]; dup {
			return nil, fmt.Errorf("catalog product %s/%d is listed twice", p.Type, p.ID)
		}
		s.products[key] = p
		s.order = append(s.order, key)
	}
	for _, c := range doc.Coupons {
		code := normalizeCode(c.Code)
		if code == "" {
			return nil, fmt.Errorf("catalog coupon: code is required")
		}
		switch c.Type {
		case CouponPercent, CouponFixed:
		default:
			return nil, fmt.Errorf("catalog coupon %s: unknown type %q", code, c.Type)
		}
		c.Code = code
		s.coupons[code] = c
	}
	return s, nil
}

// WithClock returns a copy of s that evaluates coupon expiry against now.
func (s *Static) WithClock(now func() time.Time) *Static {
	cp := *s
	cp.now = now
	return &cp
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Products lists the catalog in file order.
func (s *Static) Products() []Product {
	out := make([]Product, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.products[key])
	}
	return out
}

// Find returns the product or a NOT_FOUND error.
func (s *Static) Find(_ context.Context, buyableType string, id int64) (cart.Buyable, error) {
	p, ok := s.products[productKey{typ: buyableType, id: id}]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %d not found", buyableType, id))
	}
	return p, nil
}

// Resolvers returns one bulk resolver per product type.
func (s *Static) Resolvers() map[string]cart.BuyableResolver {
	out := map[string]cart.BuyableResolver{}
	for _, key := range s.order {
		if _, ok := out[key.typ]; ok {
			continue
		}
		typ := key.typ
		out[typ] = cart.BuyableResolverFunc(func(_ context.Context, ids []int64) (map[int64]any, error) {
			found := make(map[int64]any, len(ids))
			for _, id := range ids {
				if p, ok := s.products[productKey{typ: typ, id: id}]; ok {
					found[id] = p
				}
			}
			return found, nil
		})
	}
	return out
}

// Coupon looks up a code case-insensitively.
func (s *Static) Coupon(code string) (Coupon, bool) {
	c, ok := s.coupons[normalizeCode(code)]
	return c, ok
}

// CouponValidator accepts known, unexpired coupons whose minimum subtotal is
// met and registers the matching discount condition on the cart.
func (s *Static) CouponValidator() cart.CouponValidator {
	return func(ctx context.Context, code string, c *cart.Cart) (bool, error) {
		coupon, ok := s.Coupon(code)
		if !ok {
			return false, nil
		}
		if coupon.ExpiresAt != nil && !s.now().Before(*coupon.ExpiresAt) {
			return false, nil
		}
		if c.Subtotal().LessThan(coupon.MinSubtotal) {
			return false, nil
		}
		if err := c.AddCondition(ctx, coupon.condition()); err != nil {
			return false, err
		}
		return true, nil
	}
}
