package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/herb-sales-ledger/api/controllers"
	"github.com/angelmondragon/herb-sales-ledger/api/middleware"
	"github.com/angelmondragon/herb-sales-ledger/internal/report"
	"github.com/angelmondragon/herb-sales-ledger/internal/sales"
	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/db"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	"github.com/angelmondragon/herb-sales-ledger/pkg/metrics"
	"github.com/angelmondragon/herb-sales-ledger/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	ledger sales.Ledger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]controllers.Pinger{}
	var idempotencyStore redis.IdempotencyStore
	if dbClient != nil {
		deps["database"] = dbClient
	}
	if redisClient != nil {
		deps["redis"] = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps, logg))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	reportOpts := controllers.ReportOptions{
		Mode:   report.ParseMode(cfg.Report.Mode),
		Locale: cfg.Report.Locale,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(ledger, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(ledger, logg))
			r.With(middleware.Idempotency(idempotencyStore, logg)).Post("/", controllers.CreateSale(ledger, logg))
			r.Get("/grouped", controllers.GroupedSales(ledger, logg))
			r.Get("/revenue", controllers.SalesRevenue(ledger, logg))
			r.Get("/{saleId}", controllers.GetSale(ledger, logg))
			r.Put("/{saleId}", controllers.UpdateSale(ledger, logg))
			r.Delete("/{saleId}", controllers.DeleteSale(ledger, logg))
		})

		r.Get("/reports/sales.csv", controllers.ExportSalesCSV(ledger, reportOpts, logg))
	})

	return r
}
