package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "SHOPPINGCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SHOPPINGCART_APP_ENV"
	EnvPort         = "SHOPPINGCART_APP_PORT"
	EnvLogLevel     = "SHOPPINGCART_LOG_LEVEL"
	EnvLogWarnStack = "SHOPPINGCART_LOG_WARN_STACK"

	EnvDBDSN      = "SHOPPINGCART_DB_DSN"
	EnvDBDriver   = "SHOPPINGCART_DB_DRIVER"
	EnvDBHost     = "SHOPPINGCART_DB_HOST"
	EnvDBPort     = "SHOPPINGCART_DB_PORT"
	EnvDBUser     = "SHOPPINGCART_DB_USER"
	EnvDBPassword = "SHOPPINGCART_DB_PASSWORD"
	EnvDBName     = "SHOPPINGCART_DB_NAME"
	EnvDBSSLMode  = "SHOPPINGCART_DB_SSLMODE"

	EnvRedisURL  = "SHOPPINGCART_REDIS_URL"
	EnvRedisAddr = "SHOPPINGCART_REDIS_ADDR"

	EnvJWTSecret = "SHOPPINGCART_JWT_SECRET"
	EnvJWTIssuer = "SHOPPINGCART_JWT_ISSUER"

	EnvCartStorage           = "SHOPPINGCART_CART_STORAGE"
	EnvCartDBConnection      = "SHOPPINGCART_CART_DB_CONNECTION"
	EnvCartCartsTable        = "SHOPPINGCART_CART_CARTS_TABLE"
	EnvCartItemsTable        = "SHOPPINGCART_CART_ITEMS_TABLE"
	EnvCartSessionKey        = "SHOPPINGCART_CART_SESSION_KEY"
	EnvCartTaxEnabled        = "SHOPPINGCART_CART_TAX_ENABLED"
	EnvCartTaxDefaultRate    = "SHOPPINGCART_CART_TAX_DEFAULT_RATE"
	EnvCartTaxIncluded       = "SHOPPINGCART_CART_TAX_INCLUDED_IN_PRICE"
	EnvCartCurrencyCode      = "SHOPPINGCART_CART_CURRENCY_CODE"
	EnvCartCurrencySymbol    = "SHOPPINGCART_CART_CURRENCY_SYMBOL"
	EnvCartCurrencyDecimals  = "SHOPPINGCART_CART_CURRENCY_DECIMALS"
	EnvCartDecimalSeparator  = "SHOPPINGCART_CART_CURRENCY_DECIMAL_SEPARATOR"
	EnvCartThousandSeparator = "SHOPPINGCART_CART_CURRENCY_THOUSAND_SEPARATOR"
	EnvCartExpiration        = "SHOPPINGCART_CART_EXPIRATION_MINUTES"
	EnvCartMaxItems          = "SHOPPINGCART_CART_MAX_ITEMS"
	EnvCartMaxQuantity       = "SHOPPINGCART_CART_MAX_QUANTITY_PER_ITEM"

	EnvCatalogPath = "SHOPPINGCART_CATALOG_PATH"

	EnvCronInterval = "SHOPPINGCART_CRON_INTERVAL"
	EnvCronGrace    = "SHOPPINGCART_CRON_EXPIRED_CART_GRACE"
	EnvCronBatch    = "SHOPPINGCART_CRON_EXPIRED_CART_BATCH"

	EnvAutoMigrate = "SHOPPINGCART_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
