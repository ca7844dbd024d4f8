package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db/models"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestRunUpCreatesLedgerTables(t *testing.T) {
	conn := openSQLite(t)
	sqlDB, _ := conn.DB()
	ctx := context.Background()

	if err := Run(ctx, sqlDB, config.DBDriverSQLite, "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}
	for _, table := range []string{"products", "sales"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s after migrating", table)
		}
	}

	grams := "grams"
	if err := conn.Exec(
		"INSERT INTO sales (id, seq, sale_date, product_id, mode, package_color, quantity, unit_price, total_amount) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		"sale-1", 1, "2024-01-01", "herb-1", grams, "red", 1, 1, 1,
	).Error; err == nil {
		t.Fatalf("expected check constraint to reject grams sale with a package color")
	}

	if err := Run(ctx, sqlDB, config.DBDriverSQLite, "down"); err != nil {
		t.Fatalf("goose down: %v", err)
	}
	if conn.Migrator().HasTable("sales") {
		t.Fatalf("expected sales table to be dropped")
	}
}

func TestMigrateToVersion(t *testing.T) {
	conn := openSQLite(t)
	sqlDB, _ := conn.DB()
	ctx := context.Background()

	if err := MigrateToVersion(ctx, sqlDB, config.DBDriverSQLite, "20240101000001"); err != nil {
		t.Fatalf("migrate to version: %v", err)
	}
	if !conn.Migrator().HasTable(&models.Product{}) {
		t.Fatalf("expected products table")
	}
	if conn.Migrator().HasTable(&models.Sale{}) {
		t.Fatalf("sales table should not exist yet")
	}
	if err := MigrateToVersion(ctx, sqlDB, config.DBDriverSQLite, "not-a-version"); err == nil {
		t.Fatalf("expected invalid version error")
	}
}

func TestDialect(t *testing.T) {
	if d, err := Dialect(config.DBDriverPostgres); err != nil || d != "postgres" {
		t.Fatalf("postgres dialect got %q err=%v", d, err)
	}
	if d, err := Dialect(config.DBDriverSQLite); err != nil || d != "sqlite3" {
		t.Fatalf("sqlite dialect got %q err=%v", d, err)
	}
	if _, err := Dialect(config.DBDriverMemory); err == nil {
		t.Fatalf("memory driver should have no dialect")
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	conn := openSQLite(t)
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		DB:           config.DBConfig{Driver: config.DBDriverSQLite},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), db.Wrap(conn)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.Migrator().HasTable("products") {
		t.Fatalf("migrations should not run outside dev")
	}

	cfg.App.Env = config.AppEnvDev
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), db.Wrap(conn)); err != nil {
		t.Fatalf("dev auto-run: %v", err)
	}
	if !conn.Migrator().HasTable("products") {
		t.Fatalf("expected dev auto-run to create products")
	}

	sqlDB, _ := conn.DB()
	version, err := CurrentVersion(context.Background(), sqlDB, config.DBDriverSQLite)
	if err != nil || version == 0 {
		t.Fatalf("expected an applied version, got %d err=%v", version, err)
	}

	// a second boot is a no-op
	if err := MaybeRunDev(context.Background(), cfg, logger.Nop(), db.Wrap(conn)); err != nil {
		t.Fatalf("second dev auto-run: %v", err)
	}
}

func TestCurrentVersionRejectsMemoryDriver(t *testing.T) {
	sqlDB, _ := openSQLite(t).DB()
	if _, err := CurrentVersion(context.Background(), sqlDB, config.DBDriverMemory); err == nil {
		t.Fatal("expected memory driver to be rejected")
	}
	if _, err := CurrentVersion(context.Background(), nil, config.DBDriverSQLite); err == nil {
		t.Fatal("expected nil db to be rejected")
	}
}

func TestCreateSQLMigrationPassesValidation(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Sale Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(filepath.Base(path), "_add_sale_notes.sql") {
		t.Fatalf("unexpected file name %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up"), 0o644); err != nil {
		t.Fatalf("write bad migration: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename to fail validation")
	}
}

func TestCreateSQLMigrationRejectsVersionClash(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2024, time.May, 1, 8, 30, 0, 0, time.UTC) }

	path, err := createSQLMigration(dir, "add sale notes", fixed)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20240501083000_add_sale_notes.sql" {
		t.Fatalf("unexpected file name %s", path)
	}
	if _, err := createSQLMigration(dir, "other", fixed); err == nil {
		t.Fatalf("expected a second migration with the same version to fail")
	}
	if _, err := createSQLMigration(dir, "  !!  ", fixed); err == nil {
		t.Fatalf("expected an unusable name to fail")
	}
}

func TestMigrationSlug(t *testing.T) {
	tests := map[string]string{
		"Add Sale Notes!":     "add_sale_notes",
		"  products--stock  ": "products_stock",
		"__":                  "",
	}
	for in, want := range tests {
		if got := migrationSlug(in); got != want {
			t.Fatalf("migrationSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateFSReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20240101000000_create_products.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20240101000000_create_sales.sql":    {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20240102000000_no_down.sql":         {Data: []byte("-- +goose Up\n")},
		"m/Seed-Data.sql":                      {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/README.md":                          {Data: []byte("notes")},
	}

	err := validateFS(fsys, "m")
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	problems := multierr.Errors(err)
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(problems), err)
	}
	for _, want := range []string{"already used by", `missing "-- +goose Down"`, "Seed-Data.sql"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}

	if err := validateFS(fstest.MapFS{}, "missing"); err == nil {
		t.Fatal("expected a missing directory to fail")
	}
}
