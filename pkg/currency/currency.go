package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders amounts with fixed decimals and separators.
type Formatter struct {
	Code              string
	Symbol            string
	Decimals          int
	DecimalSeparator  string
	ThousandSeparator string
}

// Default returns USD formatting.
func Default() Formatter {
	return Formatter{
		Code:              "USD",
		Symbol:            "$",
		Decimals:          2,
		DecimalSeparator:  ".",
		ThousandSeparator: ",",
	}
}

// Format renders amount prefixed by the currency symbol.
func (f Formatter) Format(amount decimal.Decimal) string {
	return f.Symbol + f.Number(amount)
}

// FormatWithCode renders amount followed by the currency code, e.g. "1,234.50 USD".
func (f Formatter) FormatWithCode(amount decimal.Decimal) string {
	return f.Number(amount) + " " + f.Code
}

// Number renders amount without symbol or code.
func (f Formatter) Number(amount decimal.Decimal) string {
	decimals := f.Decimals
	if decimals < 0 {
		decimals = 0
	}
	rounded := amount.Round(int32(decimals))
	negative := rounded.IsNegative()
	fixed := rounded.Abs().StringFixed(int32(decimals))

	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(whole, f.ThousandSeparator))
	if decimals > 0 {
		b.WriteString(f.DecimalSeparator)
		b.WriteString(frac)
	}
	return b.String()
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	var b strings.Builder
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
