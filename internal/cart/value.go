package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Value is a condition amount: either a literal currency amount or a percentage
// of a base. On the wire a number (or numeric string) is a literal and a string
// containing "%" is a percentage.
type Value struct {
	percent bool
	amount  decimal.Decimal
}

// Literal builds a fixed currency amount.
func Literal(amount decimal.Decimal) Value {
	return Value{amount: amount}
}

// Percentage builds a percentage value, pct=10 meaning 10%.
func Percentage(pct decimal.Decimal) Value {
	return Value{percent: true, amount: pct}
}

// ParseValue decodes the dual-typed wire representation.
func ParseValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case decimal.Decimal:
		return Literal(v), nil
	case int:
		return Literal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return Literal(decimal.NewFromInt(v)), nil
	case float64:
		return Literal(decimal.NewFromFloat(v)), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return Value{}, fmt.Errorf("condition value %q: %w", v, err)
		}
		return Literal(d), nil
	case string:
		s := strings.TrimSpace(v)
		if strings.Contains(s, "%") {
			d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(s, "%", "")))
			if err != nil {
				return Value{}, fmt.Errorf("condition percentage %q: %w", v, err)
			}
			return Percentage(d), nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Value{}, fmt.Errorf("condition value %q: %w", v, err)
		}
		return Literal(d), nil
	case nil:
		return Value{}, fmt.Errorf("condition value is required")
	default:
		return Value{}, fmt.Errorf("unsupported condition value type %T", raw)
	}
}

func (v Value) IsPercentage() bool { return v.percent }

// Amount is the literal amount or the percentage figure.
func (v Value) Amount() decimal.Decimal { return v.amount }

// Resolve returns the currency amount against base.
func (v Value) Resolve(base decimal.Decimal) decimal.Decimal {
	if v.percent {
		return base.Mul(v.amount).Div(hundred)
	}
	return v.amount
}

func (v Value) String() string {
	if v.percent {
		return v.amount.String() + "%"
	}
	return v.amount.String()
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.percent {
		return json.Marshal(v.String())
	}
	return []byte(v.amount.String()), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseValue(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
