package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brightpath/schoolbooks-backend/api/routes"
	"github.com/brightpath/schoolbooks-backend/internal/accounts"
	"github.com/brightpath/schoolbooks-backend/internal/fees"
	"github.com/brightpath/schoolbooks-backend/internal/payroll"
	"github.com/brightpath/schoolbooks-backend/internal/providentfund"
	"github.com/brightpath/schoolbooks-backend/pkg/config"
	"github.com/brightpath/schoolbooks-backend/pkg/db"
	"github.com/brightpath/schoolbooks-backend/pkg/logger"
	"github.com/brightpath/schoolbooks-backend/pkg/metrics"
	"github.com/brightpath/schoolbooks-backend/pkg/migrate"
	"github.com/brightpath/schoolbooks-backend/pkg/outbox"
	"github.com/brightpath/schoolbooks-backend/pkg/redis"
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

	accountsService, err := accounts.NewService(accounts.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	pfService, err := providentfund.NewService(providentfund.NewRepository(dbClient.DB()), outboxService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create provident fund service", err)
		os.Exit(1)
	}

	feesService, err := fees.NewService(fees.NewRepository(dbClient.DB()), accountsService, outboxService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create fees service", err)
		os.Exit(1)
	}

	payrollService, err := payroll.NewService(payroll.NewRepository(dbClient.DB()), accountsService, pfService, outboxService, dbClient, cfg.Ledger)
	if err != nil {
		logg.Error(context.Background(), "failed to create payroll service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

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
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			accountsService,
			feesService,
			payrollService,
			pfService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
