package main

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	"github.com/angelmondragon/herb-sales-ledger/pkg/migrate"
	"github.com/angelmondragon/herb-sales-ledger/pkg/redis"
)

// resources tracks the connections opened during boot.
type resources struct {
	db     *db.Client
	redis  *redis.Client
	closed bool
}

func (r *resources) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.redis != nil {
		err = multierr.Append(err, r.redis.Close())
	}
	if r.db != nil {
		err = multierr.Append(err, r.db.Close())
	}
	return err
}

// openStore picks the in-memory store or a GORM repository for the
// configured driver, running dev migrations for the latter.
func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, res *resources) (sales.Store, error) {
	if cfg.DB.UsesMemory() {
		logg.Info(ctx, "using in-memory sales store")
		return sales.NewMemoryStore(), nil
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	res.db = client

	if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
		return nil, err
	}
	repo, err := sales.NewRepository(client)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// maybeSeedDemo fills an empty ledger with generated products and sales.
func maybeSeedDemo(ctx context.Context, cfg *config.Config, logg *logger.Logger, ledger sales.Ledger) error {
	if !cfg.Ledger.SeedDemo {
		return nil
	}

	products, err := ledger.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		logg.Debug(ctx, "ledger already has products, skipping demo seed")
		return nil
	}

	seed := uint64(cfg.Ledger.SeedRandom)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	demoProducts := sales.GenerateProducts(rng)
	demoSales := sales.GenerateSales(demoProducts, rng, time.Now())

	logg.Info(logg.WithField(ctx, "seed", seed), "seeding demo ledger")
	return ledger.Seed(ctx, demoProducts, demoSales)
}
