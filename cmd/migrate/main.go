package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	"github.com/angelmondragon/herb-sales-ledger/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|current|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()
	_ = godotenv.Load()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	// create and validate work on files only
	switch opts.cmd {
	case "create":
		exitOn(ctx, logg, createMigration(opts))
		return
	case "validate":
		exitOn(ctx, logg, migrate.ValidateDir(opts.dir))
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      logger.ParseFormat(cfg.App.LogFormat),
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"driver": cfg.DB.Driver,
	})

	exitOn(ctx, logg, runAgainstDatabase(ctx, cfg, logg, opts))
}

func createMigration(opts options) error {
	if opts.name == "" {
		return errors.New("missing -name for create")
	}
	path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
	if err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	fmt.Println("created migration:", path)
	return nil
}

func runAgainstDatabase(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) error {
	if cfg.DB.UsesMemory() {
		return fmt.Errorf("%s=%s has no schema to migrate", config.EnvDBDriver, config.DBDriverMemory)
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	driver := cfg.DB.Driver

	switch opts.cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, driver, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, driver, opts.version)
	case "current":
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
	if err != nil {
		return err
	}

	current, err := migrate.CurrentVersion(ctx, sqlDB, driver)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", current), "sales schema version")
	return nil
}

func exitOn(ctx context.Context, logg *logger.Logger, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "migrate failed", err)
	os.Exit(1)
}
