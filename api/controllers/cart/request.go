package cart

// AddItemRequest references a catalog buyable by type and id.
type AddItemRequest struct {
	BuyableType string         `json:"buyable_type" validate:"required,max=64"`
	BuyableID   int64          `json:"buyable_id" validate:"gt=0"`
	Quantity    int            `json:"quantity" validate:"gte=1"`
	Attributes  map[string]any `json:"attributes"`
}

// UpdateItemRequest patches a line. Omitted fields are left untouched.
type UpdateItemRequest struct {
	Quantity   *int           `json:"quantity" validate:"omitempty,gte=1"`
	Attributes map[string]any `json:"attributes"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
