package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/angelmondragon/shoppingcart/pkg/db"
	"github.com/angelmondragon/shoppingcart/pkg/db/models"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
	"gorm.io/gorm"
)

type startupMode int

const (
	startupSkip startupMode = iota
	startupAutoMigrate
	startupGoose
)

// startupModeFor decides what a binary does to the schema on boot: sqlite is
// always provisioned from the models, postgres runs goose only in dev with
// the auto-migrate flag.
func startupModeFor(cfg *config.Config) startupMode {
	switch {
	case cfg.DB.IsSQLite():
		return startupAutoMigrate
	case cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate:
		return startupGoose
	default:
		return startupSkip
	}
}

// MaybeRunDev prepares the cart tables at startup when startupModeFor allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"carts_table": cfg.Cart.CartsTable,
	})
	switch startupModeFor(cfg) {
	case startupAutoMigrate:
		logg.Info(ctx, "provisioning sqlite cart tables")
		return AutoMigrateModels(client.DB(), cfg.Cart.CartsTable, cfg.Cart.CartItemsTable)
	case startupGoose:
		if err := ValidateDir(DefaultDir); err != nil {
			return err
		}
		sqlDB, err := client.SQL()
		if err != nil {
			return fmt.Errorf("sql handle: %w", err)
		}
		logg.Info(logg.WithField(ctx, "dir", DefaultDir), "applying goose migrations")
		return Run(ctx, sqlDB, DefaultDir, "up")
	default:
		return nil
	}
}

// AutoMigrateModels creates the cart tables from the gorm models under the
// configured names.
func AutoMigrateModels(conn *gorm.DB, cartsTable, itemsTable string) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	if cartsTable == "" || itemsTable == "" {
		return fmt.Errorf("table names are required")
	}
	for table, model := range map[string]any{
		cartsTable: &models.CartRecord{},
		itemsTable: &models.CartItemRecord{},
	} {
		if err := conn.Table(table).AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}
