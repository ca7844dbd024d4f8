package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
)

// autoMigrates is true for a dev SQL store with the auto-migrate flag on.
func autoMigrates(cfg *config.Config) bool {
	return !cfg.DB.UsesMemory() && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev brings the sales schema up to date at boot for local
// development. Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !autoMigrates(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	driver := cfg.DB.Driver

	before, err := CurrentVersion(ctx, sqlDB, driver)
	if err != nil {
		return err
	}
	if err := Run(ctx, sqlDB, driver, "up"); err != nil {
		return fmt.Errorf("auto-migrate %s: %w", driver, err)
	}
	after, err := CurrentVersion(ctx, sqlDB, driver)
	if err != nil {
		return err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"driver":       driver,
		"from_version": before,
		"to_version":   after,
	}), "sales schema migrated")
	return nil
}
