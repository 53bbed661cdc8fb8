package cart

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
)

type ConditionType string

const (
	ConditionDiscount ConditionType = "discount"
	ConditionFee      ConditionType = "fee"
	ConditionTax      ConditionType = "tax"
)

type Target string

const (
	TargetSubtotal   Target = "subtotal"
	TargetTotal      Target = "total"
	TargetPercentage Target = "percentage"
)

// Condition is a named cart-level adjustment such as a coupon discount.
type Condition struct {
	Name   string         `json:"name"`
	Type   ConditionType  `json:"type"`
	Value  Value          `json:"value"`
	Target Target         `json:"target"`
	Rules  map[string]any `json:"rules"`
}

// ItemCondition is a discount or fee attached to a single line.
type ItemCondition struct {
	Type   ConditionType `json:"type"`
	Value  Value         `json:"value"`
	Target Target        `json:"target"`
}

func (t ConditionType) valid() bool {
	switch t {
	case ConditionDiscount, ConditionFee, ConditionTax:
		return true
	}
	return false
}

func (t Target) valid() bool {
	switch t {
	case TargetSubtotal, TargetTotal, TargetPercentage:
		return true
	}
	return false
}

func (c Condition) normalize() (Condition, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, pkgerrors.New(pkgerrors.CodeValidation, "condition name is required")
	}
	if !c.Type.valid() {
		return c, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition type %q", c.Type))
	}
	if c.Target == "" {
		c.Target = TargetSubtotal
	}
	if !c.Target.valid() {
		return c, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition target %q", c.Target))
	}
	if c.Rules == nil {
		c.Rules = map[string]any{}
	}
	return c, nil
}

func (c ItemCondition) normalize() (ItemCondition, error) {
	if c.Type != ConditionDiscount && c.Type != ConditionFee {
		return c, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item condition type must be discount or fee, got %q", c.Type))
	}
	if c.Target == "" {
		c.Target = TargetSubtotal
	}
	if !c.Target.valid() {
		return c, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown condition target %q", c.Target))
	}
	return c, nil
}
