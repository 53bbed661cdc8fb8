package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPPINGCART_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPPINGCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPPINGCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPPINGCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPPINGCART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPPINGCART_DB_DSN"`
	Driver string `envconfig:"SHOPPINGCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPPINGCART_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPPINGCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPPINGCART_DB_USER"`
	LegacyPassword string `envconfig:"SHOPPINGCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPPINGCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPPINGCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPPINGCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPPINGCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPPINGCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPPINGCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery logs statements slower than this at warn level. Zero disables it.
	SlowQuery time.Duration `envconfig:"SHOPPINGCART_DB_SLOW_QUERY" default:"250ms"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPPINGCART_REDIS_URL"`
	Address      string        `envconfig:"SHOPPINGCART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPPINGCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPPINGCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPPINGCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPPINGCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPPINGCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPPINGCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPPINGCART_REDIS_WRITE_TIMEOUT" default:"5s"`
	// Namespace prefixes every key so several deployments can share a server.
	Namespace string `envconfig:"SHOPPINGCART_REDIS_NAMESPACE" default:"sc"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// JWTConfig is optional. Without a secret every cart is keyed by session.
type JWTConfig struct {
	Secret string `envconfig:"SHOPPINGCART_JWT_SECRET"`
	Issuer string `envconfig:"SHOPPINGCART_JWT_ISSUER"`
}

type CatalogConfig struct {
	Path string `envconfig:"SHOPPINGCART_CATALOG_PATH" default:"catalog.yaml"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"SHOPPINGCART_CRON_INTERVAL" default:"1h"`
	ExpiredCartGrace time.Duration `envconfig:"SHOPPINGCART_CRON_EXPIRED_CART_GRACE" default:"24h"`
	ExpiredCartBatch int           `envconfig:"SHOPPINGCART_CRON_EXPIRED_CART_BATCH" default:"500"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPPINGCART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:shoppingcart.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
