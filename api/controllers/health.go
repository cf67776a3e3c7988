package controllers

import (
	"net/http"

	"github.com/vendorbooks/payables-backend/api/responses"
	"github.com/vendorbooks/payables-backend/pkg/config"
	"github.com/vendorbooks/payables-backend/pkg/db"
	"github.com/vendorbooks/payables-backend/pkg/logger"
	"github.com/vendorbooks/payables-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Payables-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. Redis is optional; a nil pinger
// means the API is running on the in-memory idempotency store.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Payables-Env", cfg.App.Env)

		checks := map[string]string{"db": "ok"}
		ready := true

		if dbP == nil {
			checks["db"] = "unconfigured"
			ready = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "readiness db ping failed")
			}
			checks["db"] = "down"
			ready = false
		}

		if redisP != nil {
			checks["redis"] = "ok"
			if err := redisP.Ping(r.Context()); err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "readiness redis ping failed")
				}
				checks["redis"] = "down"
				ready = false
			}
		}

		if !ready {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, checks)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
