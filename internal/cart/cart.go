package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
	"github.com/shopspring/decimal"
)

// CouponMetadataKey holds the applied coupon code in cart metadata.
const CouponMetadataKey = "coupon"

// CouponValidator decides whether code may be applied to c. It may register
// conditions on c through AddCondition; those writes are held back and stored
// together with the coupon in one save.
type CouponValidator func(ctx context.Context, code string, c *Cart) (bool, error)

// Params configure a Cart.
type Params struct {
	Storage    Storage
	Identifier string
	Instance   string
	Settings   Settings
	Logger     *logger.Logger
}

// Cart is one owner's cart instance. It is not safe for concurrent use; open
// one per request.
type Cart struct {
	storage    Storage
	identifier string
	instance   string
	settings   Settings
	logg       *logger.Logger

	items      []*Item
	conditions map[string]Condition
	metadata   map[string]any

	// deferred suppresses saves while a coupon validator runs.
	deferred bool

	subtotal memo
	tax      memo
	discount memo
	total    memo
}

type memo struct {
	value decimal.Decimal
	set   bool
}

func (m *memo) get(compute func() decimal.Decimal) decimal.Decimal {
	if !m.set {
		m.value = compute()
		m.set = true
	}
	return m.value
}

// ItemPatch lists the fields Update may change. Attributes are merged into the
// existing map.
type ItemPatch struct {
	Quantity   *int
	Price      *decimal.Decimal
	Attributes map[string]any
}

// New binds a cart to (identifier, instance) and loads its snapshot.
func New(ctx context.Context, params Params) (*Cart, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	identifier := strings.TrimSpace(params.Identifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identifier is required")
	}
	settings := params.Settings
	def := DefaultSettings()
	if settings.Limits.MaxItems <= 0 {
		settings.Limits.MaxItems = def.Limits.MaxItems
	}
	if settings.Limits.MaxQuantity <= 0 {
		settings.Limits.MaxQuantity = def.Limits.MaxQuantity
	}
	c := &Cart{
		storage:    params.Storage,
		identifier: identifier,
		instance:   InstanceOrDefault(params.Instance),
		settings:   settings,
		logg:       params.Logger,
	}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cart) Identifier() string { return c.identifier }
func (c *Cart) Instance() string   { return c.instance }
func (c *Cart) Settings() Settings { return c.settings }

// UseInstance switches to another named cart of the same owner and loads it.
// On a failed load the cart stays bound to its previous instance.
func (c *Cart) UseInstance(ctx context.Context, instance string) error {
	prev := c.instance
	c.instance = InstanceOrDefault(instance)
	if err := c.load(ctx); err != nil {
		c.instance = prev
		return err
	}
	return nil
}

// Reload discards in-memory state and reads the stored snapshot again.
func (c *Cart) Reload(ctx context.Context) error {
	return c.load(ctx)
}

func (c *Cart) load(ctx context.Context) error {
	snapshot, err := c.storage.Get(ctx, c.identifier, c.instance)
	if err != nil {
		c.logFailure(ctx, "cart load failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if snapshot == nil {
		c.reset()
		return nil
	}
	c.restore(*snapshot)
	return nil
}

func (c *Cart) reset() {
	c.items = nil
	c.conditions = map[string]Condition{}
	c.metadata = map[string]any{}
	c.invalidate()
}

func (c *Cart) invalidate() {
	c.subtotal = memo{}
	c.tax = memo{}
	c.discount = memo{}
	c.total = memo{}
}

// Snapshot returns the persistable state.
func (c *Cart) Snapshot() Snapshot {
	items := make([]ItemRecord, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item.Record())
	}
	conditions := make(map[string]Condition, len(c.conditions))
	for name, cond := range c.conditions {
		conditions[name] = cond
	}
	return Snapshot{
		Items:      items,
		Metadata:   cloneMap(c.metadata),
		Conditions: conditions,
	}
}

func (c *Cart) save(ctx context.Context) error {
	if c.deferred {
		return nil
	}
	if err := c.storage.Put(ctx, c.identifier, c.Snapshot(), c.instance); err != nil {
		c.logFailure(ctx, "cart save failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (c *Cart) logFailure(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithCart(ctx, c.identifier, c.instance)
	ctx = c.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	c.logg.Error(ctx, msg, err)
}

// Add snapshots b into a new line, or merges quantity into the line with the
// same buyable type, id and attributes.
func (c *Cart) Add(ctx context.Context, b Buyable, quantity int, attributes map[string]any) (*Item, error) {
	if b == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyable is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	limits := c.settings.Limits
	if len(c.items) >= limits.MaxItems {
		return nil, pkgerrors.New(pkgerrors.CodeLimitExceeded, fmt.Sprintf("cart cannot exceed %d items", limits.MaxItems)).
			WithDetails(map[string]any{"max_items": limits.MaxItems})
	}
	if quantity > limits.MaxQuantity {
		return nil, quantityExceeded(limits.MaxQuantity)
	}

	item, err := c.newItem(RefOf(b), quantity, attributes)
	if err != nil {
		return nil, err
	}

	if existing := c.match(item); existing != nil {
		if existing.Quantity+quantity > limits.MaxQuantity {
			return nil, quantityExceeded(limits.MaxQuantity)
		}
		existing.Quantity += quantity
		item = existing
	} else {
		c.items = append(c.items, item)
	}

	c.invalidate()
	if err := c.save(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

func quantityExceeded(max int) error {
	return pkgerrors.New(pkgerrors.CodeLimitExceeded, fmt.Sprintf("quantity cannot exceed %d", max)).
		WithDetails(map[string]any{"max_quantity": max})
}

func (c *Cart) newItem(ref BuyableRef, quantity int, attributes map[string]any) (*Item, error) {
	if strings.TrimSpace(ref.Type) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyable type is required")
	}
	if ref.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	name := ref.Name
	if strings.TrimSpace(name) == "" {
		name = defaultItemName
	}
	item := &Item{
		ID:          newItemID(),
		BuyableType: ref.Type,
		BuyableID:   ref.ID,
		Name:        name,
		Quantity:    quantity,
		Price:       round(ref.Price),
		Attributes:  cloneMap(attributes),
		Conditions:  []ItemCondition{},
		TaxRate:     roundRate(c.settings.Tax.DefaultRate),
	}
	if ref.TaxRate != nil {
		if ref.TaxRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
		}
		item.TaxRate = roundRate(*ref.TaxRate)
	}
	for _, cond := range ref.Conditions {
		normalized, err := cond.normalize()
		if err != nil {
			return nil, err
		}
		item.Conditions = append(item.Conditions, normalized)
	}
	return item, nil
}

func (c *Cart) match(candidate *Item) *Item {
	for _, existing := range c.items {
		if existing.BuyableType == candidate.BuyableType &&
			existing.BuyableID == candidate.BuyableID &&
			sameAttributes(existing.Attributes, candidate.Attributes) {
			return existing
		}
	}
	return nil
}

// Update applies patch to the line with itemID. A missing line returns nil, nil.
func (c *Cart) Update(ctx context.Context, itemID string, patch ItemPatch) (*Item, error) {
	item := c.Get(itemID)
	if item == nil {
		return nil, nil
	}
	if patch.Quantity != nil {
		q := *patch.Quantity
		if q < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if q > c.settings.Limits.MaxQuantity {
			return nil, quantityExceeded(c.settings.Limits.MaxQuantity)
		}
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		item.Price = round(*patch.Price)
	}
	if item.Attributes == nil {
		item.Attributes = map[string]any{}
	}
	for k, v := range patch.Attributes {
		item.Attributes[k] = v
	}

	c.invalidate()
	if err := c.save(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove drops the line with itemID. Removing a missing line still succeeds.
func (c *Cart) Remove(ctx context.Context, itemID string) (bool, error) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = nil
	}
	c.items = kept
	c.invalidate()
	if err := c.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cart) Get(itemID string) *Item {
	for _, item := range c.items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// Items returns the lines in insertion order.
func (c *Cart) Items() []*Item {
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// Count is the total quantity across lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Find returns the first line referencing the given buyable.
func (c *Cart) Find(buyableType string, buyableID int64) *Item {
	for _, item := range c.items {
		if item.BuyableType == buyableType && item.BuyableID == buyableID {
			return item
		}
	}
	return nil
}

// Contains reports whether any line references b.
func (c *Cart) Contains(b Buyable) bool {
	return b != nil && c.Find(b.BuyableType(), b.BuyableID()) != nil
}

// RemoveBuyable removes the first line referencing b. It reports false,
// without saving, when b is not in the cart.
func (c *Cart) RemoveBuyable(ctx context.Context, b Buyable) (bool, error) {
	if b == nil {
		return false, nil
	}
	item := c.Find(b.BuyableType(), b.BuyableID())
	if item == nil {
		return false, nil
	}
	return c.Remove(ctx, item.ID)
}

// Clear empties lines, conditions and metadata and saves the empty cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.reset()
	return c.save(ctx)
}

// Destroy deletes the stored cart and resets memory without writing back.
func (c *Cart) Destroy(ctx context.Context) error {
	if err := c.storage.Forget(ctx, c.identifier, c.instance); err != nil {
		c.logFailure(ctx, "cart destroy failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "destroy cart")
	}
	c.reset()
	return nil
}

// AddCondition inserts or replaces the cart-level condition with cond.Name.
func (c *Cart) AddCondition(ctx context.Context, cond Condition) error {
	normalized, err := cond.normalize()
	if err != nil {
		return err
	}
	c.conditions[normalized.Name] = normalized
	c.invalidate()
	return c.save(ctx)
}

// RemoveCondition deletes the named condition if present.
func (c *Cart) RemoveCondition(ctx context.Context, name string) error {
	delete(c.conditions, name)
	c.invalidate()
	return c.save(ctx)
}

func (c *Cart) Condition(name string) (Condition, bool) {
	cond, ok := c.conditions[name]
	return cond, ok
}

func (c *Cart) Conditions() map[string]Condition {
	out := make(map[string]Condition, len(c.conditions))
	for name, cond := range c.conditions {
		out[name] = cond
	}
	return out
}

// ApplyCoupon records code under metadata "coupon" once validator accepts it.
// A nil validator accepts every code.
func (c *Cart) ApplyCoupon(ctx context.Context, code string, validator CouponValidator) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	before := c.Snapshot()
	if validator != nil {
		ok, err := c.runDeferred(func() (bool, error) { return validator(ctx, code, c) })
		if err != nil {
			c.restore(before)
			return err
		}
		if !ok {
			c.restore(before)
			return pkgerrors.New(pkgerrors.CodeInvalidCoupon, fmt.Sprintf("invalid coupon code: %s", code))
		}
	}
	c.metadata[CouponMetadataKey] = code
	c.invalidate()
	if err := c.save(ctx); err != nil {
		c.restore(before)
		return err
	}
	return nil
}

func (c *Cart) runDeferred(fn func() (bool, error)) (bool, error) {
	c.deferred = true
	defer func() { c.deferred = false }()
	return fn()
}

// restore puts back in-memory state captured by Snapshot.
func (c *Cart) restore(s Snapshot) {
	c.reset()
	for _, record := range s.Items {
		c.items = append(c.items, itemFromRecord(record, c.settings.Tax))
	}
	for name, cond := range s.Conditions {
		c.conditions[name] = cond
	}
	for k, v := range s.Metadata {
		c.metadata[k] = v
	}
}

// RemoveCoupon clears the recorded coupon together with the named conditions.
func (c *Cart) RemoveCoupon(ctx context.Context, conditions ...string) error {
	delete(c.metadata, CouponMetadataKey)
	for _, name := range conditions {
		delete(c.conditions, name)
	}
	c.invalidate()
	return c.save(ctx)
}

func (c *Cart) SetMetadata(ctx context.Context, key string, value any) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "metadata key is required")
	}
	c.metadata[key] = value
	c.invalidate()
	return c.save(ctx)
}

func (c *Cart) Metadata(key string) (any, bool) {
	v, ok := c.metadata[key]
	return v, ok
}

func (c *Cart) AllMetadata() map[string]any {
	return cloneMap(c.metadata)
}

// LoadBuyables resolves the entities behind every line with one resolver call
// per buyable type and attaches them to Item.Buyable. Types without a resolver
// are skipped.
func (c *Cart) LoadBuyables(ctx context.Context, resolvers map[string]BuyableResolver) error {
	var order []string
	grouped := map[string][]*Item{}
	for _, item := range c.items {
		if _, seen := grouped[item.BuyableType]; !seen {
			order = append(order, item.BuyableType)
		}
		grouped[item.BuyableType] = append(grouped[item.BuyableType], item)
	}

	for _, typ := range order {
		resolver, ok := resolvers[typ]
		if !ok || resolver == nil {
			continue
		}
		items := grouped[typ]
		seen := map[int64]struct{}{}
		ids := make([]int64, 0, len(items))
		for _, item := range items {
			if _, dup := seen[item.BuyableID]; dup {
				continue
			}
			seen[item.BuyableID] = struct{}{}
			ids = append(ids, item.BuyableID)
		}
		found, err := resolver.ResolveBuyables(ctx, ids)
		if err != nil {
			return fmt.Errorf("resolve %s buyables: %w", typ, err)
		}
		for _, item := range items {
			item.Buyable = found[item.BuyableID]
		}
	}
	return nil
}

// Subtotal is the rounded sum of line subtotals.
func (c *Cart) Subtotal() decimal.Decimal {
	return c.subtotal.get(func() decimal.Decimal {
		sum := decimal.Zero
		for _, item := range c.items {
			sum = sum.Add(item.Subtotal())
		}
		return round(sum)
	})
}

// Tax is the rounded sum of line taxes.
func (c *Cart) Tax() decimal.Decimal {
	return c.tax.get(func() decimal.Decimal {
		sum := decimal.Zero
		for _, item := range c.items {
			sum = sum.Add(item.Tax(c.settings.Tax))
		}
		return round(sum)
	})
}

// Discount sums the cart-level discount conditions.
func (c *Cart) Discount() decimal.Decimal {
	return c.discount.get(func() decimal.Decimal {
		return c.sumConditions(ConditionDiscount)
	})
}

// Fees sums the cart-level fee conditions.
func (c *Cart) Fees() decimal.Decimal {
	return c.sumConditions(ConditionFee)
}

// Total is subtotal + tax - discount + fees.
func (c *Cart) Total() decimal.Decimal {
	return c.total.get(func() decimal.Decimal {
		return round(c.Subtotal().Add(c.Tax()).Sub(c.Discount()).Add(c.Fees()))
	})
}

func (c *Cart) sumConditions(t ConditionType) decimal.Decimal {
	sum := decimal.Zero
	for _, cond := range c.conditions {
		if cond.Type == t {
			sum = sum.Add(c.resolve(cond))
		}
	}
	return round(sum)
}

// resolve evaluates cond against the subtotal, or subtotal plus tax when it
// targets the total.
func (c *Cart) resolve(cond Condition) decimal.Decimal {
	base := c.Subtotal()
	if cond.Target == TargetTotal {
		base = base.Add(c.Tax())
	}
	return cond.Value.Resolve(base)
}

func (c *Cart) FormattedSubtotal() string { return c.settings.Currency.Format(c.Subtotal()) }
func (c *Cart) FormattedTax() string      { return c.settings.Currency.Format(c.Tax()) }
func (c *Cart) FormattedDiscount() string { return c.settings.Currency.Format(c.Discount()) }
func (c *Cart) FormattedTotal() string    { return c.settings.Currency.Format(c.Total()) }

// Summary is the serialized view of a cart.
type Summary struct {
	Identifier string               `json:"identifier"`
	Instance   string               `json:"instance"`
	Items      []ItemSummary        `json:"items"`
	Count      int                  `json:"count"`
	Subtotal   decimal.Decimal      `json:"subtotal"`
	Tax        decimal.Decimal      `json:"tax"`
	Discount   decimal.Decimal      `json:"discount"`
	Total      decimal.Decimal      `json:"total"`
	Conditions map[string]Condition `json:"conditions"`
	Metadata   map[string]any       `json:"metadata"`
	Currency   string               `json:"currency"`
	Formatted  FormattedTotals      `json:"formatted"`
}

type FormattedTotals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

func (c *Cart) Summary() Summary {
	items := make([]ItemSummary, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item.Summary(c.settings.Tax))
	}
	return Summary{
		Identifier: c.identifier,
		Instance:   c.instance,
		Items:      items,
		Count:      c.Count(),
		Subtotal:   c.Subtotal(),
		Tax:        c.Tax(),
		Discount:   c.Discount(),
		Total:      c.Total(),
		Conditions: c.Conditions(),
		Metadata:   c.AllMetadata(),
		Currency:   c.settings.Currency.Code,
		Formatted: FormattedTotals{
			Subtotal: c.FormattedSubtotal(),
			Tax:      c.FormattedTax(),
			Discount: c.FormattedDiscount(),
			Total:    c.FormattedTotal(),
		},
	}
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Summary())
}

// ToJSON encodes Summary.
func (c *Cart) ToJSON() ([]byte, error) {
	return c.MarshalJSON()
}
