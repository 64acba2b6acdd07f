package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmoralesp/clinicdesk-backend/api/routes"
	bookingsvc "github.com/rmoralesp/clinicdesk-backend/internal/bookings"
	goalsvc "github.com/rmoralesp/clinicdesk-backend/internal/goals"
	ledgersvc "github.com/rmoralesp/clinicdesk-backend/internal/ledger"
	quotasvc "github.com/rmoralesp/clinicdesk-backend/internal/quotas"
	reportsvc "github.com/rmoralesp/clinicdesk-backend/internal/reports"
	subscriptionsvc "github.com/rmoralesp/clinicdesk-backend/internal/subscriptions"
	"github.com/rmoralesp/clinicdesk-backend/pkg/config"
	"github.com/rmoralesp/clinicdesk-backend/pkg/db"
	"github.com/rmoralesp/clinicdesk-backend/pkg/logger"
	"github.com/rmoralesp/clinicdesk-backend/pkg/metrics"
	"github.com/rmoralesp/clinicdesk-backend/pkg/migrate"
	"github.com/rmoralesp/clinicdesk-backend/pkg/outbox"
	"github.com/rmoralesp/clinicdesk-backend/pkg/redis"
)

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	subscriptionService, err := subscriptionsvc.NewService(subscriptionsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	quotaService, err := quotasvc.NewService(quotasvc.ServiceParams{
		Repo:  quotasvc.NewRepository(dbClient.DB()),
		Plans: subscriptionService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create quota service", err)
		os.Exit(1)
	}

	goalService, err := goalsvc.NewService(goalsvc.ServiceParams{
		Repo:   goalsvc.NewRepository(dbClient.DB()),
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create goal service", err)
		os.Exit(1)
	}

	ledgerRepo := ledgersvc.NewRepository(dbClient.DB())
	ledgerParams := ledgersvc.ServiceParams{
		Tx:        dbClient,
		Repo:      ledgerRepo,
		Goals:     goalService,
		Outbox:    outboxService,
		Logger:    logg,
		Metrics:   metrics.NewLedgerWriteMetrics(prometheus.DefaultRegisterer),
		MaxPasses: cfg.Ledger.MaxWritePasses,
	}
	if elevated := dbClient.Elevated(); elevated != nil {
		ledgerParams.Elevated = ledgersvc.NewRepository(elevated)
	}
	ledgerService, err := ledgersvc.NewService(ledgerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	bookingService, err := bookingsvc.NewService(bookingsvc.ServiceParams{
		Tx:     dbClient,
		Repo:   bookingsvc.NewRepository(dbClient.DB()),
		Quotas: quotaService,
		Goals:  goalService,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	reportService, err := reportsvc.NewService(reportsvc.ServiceParams{
		Entries:       ledgerRepo,
		Subscriptions: subscriptionService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			ledgerService, bookingService, reportService, quotaService, goalService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
