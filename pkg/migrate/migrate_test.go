package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))

	dir = t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_unbalanced.sql"), []byte(body), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Cart Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_cart_notes.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestAutoMigrateModelsUsesConfiguredTables(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:automigrate_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrateModels(conn, "shop_carts", "shop_cart_items"))
	assert.True(t, conn.Migrator().HasTable("shop_carts"))
	assert.True(t, conn.Migrator().HasTable("shop_cart_items"))

	assert.Error(t, AutoMigrateModels(conn, "", "x"))
	assert.Error(t, AutoMigrateModels(nil, "a", "b"))
}

func TestListOrdersByVersion(t *testing.T) {
	dir := t.TempDir()
	later, err := createAt(dir, "second", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	earlier, err := createAt(dir, "first", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, earlier, files[0].Path)
	assert.Equal(t, "first", files[0].Name)
	assert.Equal(t, later, files[1].Path)
	assert.Equal(t, int64(20260201000000), files[1].Version)

	_, err = createAt(dir, "second", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err, "existing file is not overwritten")
}

func TestValidateDirRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x (id int);\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_swapped.sql"), []byte(body), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestMigrateToVersionRejectsBadInput(t *testing.T) {
	assert.Error(t, MigrateToVersion(context.Background(), nil, "migrations", "latest"))
	assert.Error(t, MigrateToVersion(context.Background(), nil, "migrations", "20260101000000"))
}

func TestStartupModeFor(t *testing.T) {
	sqliteCfg := &config.Config{DB: config.DBConfig{Driver: "sqlite"}, App: config.AppConfig{Env: config.AppEnvProd}}
	assert.Equal(t, startupAutoMigrate, startupModeFor(sqliteCfg))

	devCfg := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	assert.Equal(t, startupGoose, startupModeFor(devCfg))

	devCfg.FeatureFlags.AutoMigrate = false
	assert.Equal(t, startupSkip, startupModeFor(devCfg))

	prodCfg := &config.Config{App: config.AppConfig{Env: config.AppEnvProd}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	assert.Equal(t, startupSkip, startupModeFor(prodCfg))
}
