package cart

import (
	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/angelmondragon/shoppingcart/pkg/currency"
	"github.com/shopspring/decimal"
)

// Limits bound the size of a cart.
type Limits struct {
	MaxItems    int
	MaxQuantity int
}

// Settings is the configuration a Cart reads once when it is opened.
type Settings struct {
	Tax      TaxPolicy
	Limits   Limits
	Currency currency.Formatter
}

// DefaultSettings matches the stock configuration: tax enabled at a zero
// rate, exclusive pricing, 100 lines of at most 999 units, USD.
func DefaultSettings() Settings {
	return Settings{
		Tax:      TaxPolicy{Enabled: true, DefaultRate: decimal.Zero},
		Limits:   Limits{MaxItems: 100, MaxQuantity: 999},
		Currency: currency.Default(),
	}
}

// SettingsFrom reads cart settings through acc, falling back to DefaultSettings.
func SettingsFrom(acc *config.Accessor) Settings {
	def := DefaultSettings()
	if acc == nil {
		return def
	}
	return Settings{
		Tax: TaxPolicy{
			Enabled:     acc.Bool(config.KeyTaxEnabled, def.Tax.Enabled),
			Included:    acc.Bool(config.KeyTaxIncluded, def.Tax.Included),
			DefaultRate: acc.Decimal(config.KeyTaxDefaultRate, def.Tax.DefaultRate),
		},
		Limits: Limits{
			MaxItems:    acc.Int(config.KeyMaxItems, def.Limits.MaxItems),
			MaxQuantity: acc.Int(config.KeyMaxQuantityPerItem, def.Limits.MaxQuantity),
		},
		Currency: currency.Formatter{
			Code:              acc.String(config.KeyCurrencyCode, def.Currency.Code),
			Symbol:            acc.String(config.KeyCurrencySymbol, def.Currency.Symbol),
			Decimals:          acc.Int(config.KeyCurrencyDecimals, def.Currency.Decimals),
			DecimalSeparator:  acc.String(config.KeyDecimalSeparator, def.Currency.DecimalSeparator),
			ThousandSeparator: acc.String(config.KeyThousandSeparator, def.Currency.ThousandSeparator),
		},
	}
}
