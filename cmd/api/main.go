package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/herb-sales-ledger/api/routes"
	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	"github.com/angelmondragon/herb-sales-ledger/pkg/metrics"
	"github.com/angelmondragon/herb-sales-ledger/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      logger.ParseFormat(cfg.App.LogFormat),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := &resources{}
	defer func() {
		if err := res.Close(); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	store, err := openStore(ctx, cfg, logg, res)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap sales store", err)
		os.Exit(1)
	}

	if cfg.Redis.Enabled() {
		res.redis, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
	}

	ids, err := sales.NewSnowflakeIDs(cfg.Ledger.NodeID)
	if err != nil {
		logg.Error(ctx, "failed to create id generator", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ledger, err := sales.NewLedger(sales.LedgerParams{
		Store:      store,
		IDs:        ids,
		Recorder:   metrics.NewLedgerMetrics(registry),
		Logger:     logg,
		TrackStock: cfg.Ledger.TrackStock,
	})
	if err != nil {
		logg.Error(ctx, "failed to create ledger", err)
		os.Exit(1)
	}

	if err := maybeSeedDemo(ctx, cfg, logg, ledger); err != nil {
		logg.Error(ctx, "failed to seed demo data", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": cfg.DB.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, ledger, res.db, res.redis, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		stop()
		_ = res.Close()
		os.Exit(1)
	}
}
