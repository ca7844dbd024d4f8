package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/herb-sales-ledger/api/responses"
	"github.com/angelmondragon/herb-sales-ledger/pkg/config"
	"github.com/angelmondragon/herb-sales-ledger/pkg/logger"
	"github.com/angelmondragon/herb-sales-ledger/pkg/types"
)

const readinessTimeout = 2 * time.Second

// Pinger is anything readiness can check.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ledger-Env", cfg.App.Env)
		responses.WriteSuccess(w, types.HealthStatus{Status: "live"})
	}
}

// HealthReady pings every configured dependency. Nil entries are skipped, so
// the in-memory deployment is always ready.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name, dep := range deps {
		if dep != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ledger-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := types.HealthStatus{Status: "ready", Checks: map[string]string{}}
		for _, name := range names {
			if err := deps[name].Ping(ctx); err != nil {
				status.Status = "degraded"
				status.Checks[name] = "down"
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "readiness check failed: "+err.Error())
				}
				continue
			}
			status.Checks[name] = "up"
		}

		if status.Status != "ready" {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
