package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cart configuration keys exposed through Provider.
const (
	KeyStorage            = "storage"
	KeyDBConnection       = "database.connection"
	KeyCartsTable         = "database.carts_table"
	KeyCartItemsTable     = "database.cart_items_table"
	KeySessionKey         = "session.key"
	KeyTaxEnabled         = "tax.enabled"
	KeyTaxDefaultRate     = "tax.default_rate"
	KeyTaxIncluded        = "tax.included_in_price"
	KeyCurrencyCode       = "currency.code"
	KeyCurrencySymbol     = "currency.symbol"
	KeyCurrencyDecimals   = "currency.decimals"
	KeyDecimalSeparator   = "currency.decimal_separator"
	KeyThousandSeparator  = "currency.thousand_separator"
	KeyExpiration         = "expiration"
	KeyMaxItems           = "limits.max_items"
	KeyMaxQuantityPerItem = "limits.max_quantity_per_item"
)

const (
	StorageSession  = "session"
	StorageDatabase = "database"
)

// CartConfig holds the cart engine settings. ExpirationMinutes <= 0 means carts never expire.
type CartConfig struct {
	Storage           string          `envconfig:"SHOPPINGCART_CART_STORAGE" default:"session"`
	DBConnection      string          `envconfig:"SHOPPINGCART_CART_DB_CONNECTION"`
	CartsTable        string          `envconfig:"SHOPPINGCART_CART_CARTS_TABLE" default:"carts"`
	CartItemsTable    string          `envconfig:"SHOPPINGCART_CART_ITEMS_TABLE" default:"cart_items"`
	SessionKey        string          `envconfig:"SHOPPINGCART_CART_SESSION_KEY" default:"shopping_cart"`
	TaxEnabled        bool            `envconfig:"SHOPPINGCART_CART_TAX_ENABLED" default:"true"`
	TaxDefaultRate    decimal.Decimal `envconfig:"SHOPPINGCART_CART_TAX_DEFAULT_RATE" default:"0"`
	TaxIncluded       bool            `envconfig:"SHOPPINGCART_CART_TAX_INCLUDED_IN_PRICE" default:"false"`
	CurrencyCode      string          `envconfig:"SHOPPINGCART_CART_CURRENCY_CODE" default:"USD"`
	CurrencySymbol    string          `envconfig:"SHOPPINGCART_CART_CURRENCY_SYMBOL" default:"$"`
	CurrencyDecimals  int             `envconfig:"SHOPPINGCART_CART_CURRENCY_DECIMALS" default:"2"`
	DecimalSeparator  string          `envconfig:"SHOPPINGCART_CART_CURRENCY_DECIMAL_SEPARATOR" default:"."`
	ThousandSeparator string          `envconfig:"SHOPPINGCART_CART_CURRENCY_THOUSAND_SEPARATOR" default:","`
	ExpirationMinutes int             `envconfig:"SHOPPINGCART_CART_EXPIRATION_MINUTES" default:"10080"`
	MaxItems          int             `envconfig:"SHOPPINGCART_CART_MAX_ITEMS" default:"100"`
	MaxQuantity       int             `envconfig:"SHOPPINGCART_CART_MAX_QUANTITY_PER_ITEM" default:"999"`
}

// DefaultCartConfig mirrors the envconfig defaults for callers that skip Load.
func DefaultCartConfig() CartConfig {
	return CartConfig{
		Storage:           StorageSession,
		CartsTable:        "carts",
		CartItemsTable:    "cart_items",
		SessionKey:        "shopping_cart",
		TaxEnabled:        true,
		TaxDefaultRate:    decimal.Zero,
		CurrencyCode:      "USD",
		CurrencySymbol:    "$",
		CurrencyDecimals:  2,
		DecimalSeparator:  ".",
		ThousandSeparator: ",",
		ExpirationMinutes: 10080,
		MaxItems:          100,
		MaxQuantity:       999,
	}
}

func (c CartConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage)) {
	case StorageSession, StorageDatabase:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvCartStorage, StorageSession, StorageDatabase, c.Storage)
	}
	if c.MaxItems <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartMaxItems)
	}
	if c.MaxQuantity <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartMaxQuantity)
	}
	if c.TaxDefaultRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCartTaxDefaultRate)
	}
	return nil
}

// Provider flattens the cart settings into the lookup keys consumed by the cart engine.
func (c CartConfig) Provider() MapProvider {
	values := MapProvider{
		KeyStorage:            strings.ToLower(strings.TrimSpace(c.Storage)),
		KeyCartsTable:         c.CartsTable,
		KeyCartItemsTable:     c.CartItemsTable,
		KeySessionKey:         c.SessionKey,
		KeyTaxEnabled:         c.TaxEnabled,
		KeyTaxDefaultRate:     c.TaxDefaultRate,
		KeyTaxIncluded:        c.TaxIncluded,
		KeyCurrencyCode:       c.CurrencyCode,
		KeyCurrencySymbol:     c.CurrencySymbol,
		KeyCurrencyDecimals:   c.CurrencyDecimals,
		KeyDecimalSeparator:   c.DecimalSeparator,
		KeyThousandSeparator:  c.ThousandSeparator,
		KeyMaxItems:           c.MaxItems,
		KeyMaxQuantityPerItem: c.MaxQuantity,
	}
	if c.DBConnection != "" {
		values[KeyDBConnection] = c.DBConnection
	}
	if c.ExpirationMinutes > 0 {
		values[KeyExpiration] = c.ExpirationMinutes
	}
	return values
}
