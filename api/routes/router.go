package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmoralesp/clinicdesk-backend/api/controllers"
	"github.com/rmoralesp/clinicdesk-backend/api/middleware"
	bookingsvc "github.com/rmoralesp/clinicdesk-backend/internal/bookings"
	goalsvc "github.com/rmoralesp/clinicdesk-backend/internal/goals"
	ledgersvc "github.com/rmoralesp/clinicdesk-backend/internal/ledger"
	quotasvc "github.com/rmoralesp/clinicdesk-backend/internal/quotas"
	reportsvc "github.com/rmoralesp/clinicdesk-backend/internal/reports"
	"github.com/rmoralesp/clinicdesk-backend/pkg/config"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ledgerService ledgersvc.Service,
	bookingService bookingsvc.Service,
	reportService reportsvc.Service,
	quotaService quotasvc.Service,
	goalService goalsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Get("/v1/payments", controllers.ListPayments(ledgerService, logg))
		r.Post("/v1/payments", controllers.RecordPayment(ledgerService, logg))
		r.Post("/v1/payments/{paymentID}/settle", controllers.SettlePayment(ledgerService, logg))

		r.Get("/v1/bookings", controllers.ListBookings(bookingService, logg))
		r.Post("/v1/bookings", controllers.CreateBooking(bookingService, logg))
		r.Post("/v1/bookings/{bookingID}/complete", controllers.CompleteBooking(bookingService, logg))

		r.Get("/v1/reports/revenue", controllers.RevenueReport(reportService, logg))
		r.Get("/v1/reports/summary", controllers.RevenueSummary(reportService, logg))

		r.Get("/v1/quotas", controllers.QuotaSnapshot(quotaService, logg))

		r.Get("/v1/goals", controllers.ListGoals(goalService, logg))
		r.Post("/v1/goals", controllers.CreateGoal(goalService, logg))
	})

	return r
}
