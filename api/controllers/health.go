package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rmoralesp/clinicdesk-backend/api/responses"
	"github.com/rmoralesp/clinicdesk-backend/pkg/config"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db"
	pkgerrors "github.com/rmoralesp/clinicdesk-backend/pkg/errors"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClinicDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClinicDesk-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["database"] = checkDependency(ctx, dbP.Ping, &healthy)
		if redisP != nil {
			checks["redis"] = checkDependency(ctx, redisP.Ping, &healthy)
		}

		if !healthy {
			responses.WriteError(r.Context(), logg,
				w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func checkDependency(ctx context.Context, ping func(context.Context) error, healthy *bool) string {
	if err := ping(ctx); err != nil {
		*healthy = false
		return err.Error()
	}
	return "ok"
}
