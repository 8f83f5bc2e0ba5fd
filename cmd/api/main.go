package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juanestebanprog/finanzas-backend/api/routes"
	"github.com/juanestebanprog/finanzas-backend/internal/auth"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	syncsvc "github.com/juanestebanprog/finanzas-backend/internal/sync"
	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	"github.com/juanestebanprog/finanzas-backend/pkg/db"
	"github.com/juanestebanprog/finanzas-backend/pkg/gist"
	"github.com/juanestebanprog/finanzas-backend/pkg/github"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
	"github.com/juanestebanprog/finanzas-backend/pkg/metrics"
	"github.com/juanestebanprog/finanzas-backend/pkg/migrate"
	"github.com/juanestebanprog/finanzas-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	githubClient, err := github.NewClient(cfg.GitHub)
	if err != nil {
		logg.Error(context.Background(), "failed to create github client", err)
		os.Exit(1)
	}

	gistClient, err := gist.NewClient(cfg.Sync.Filename)
	if err != nil {
		logg.Error(context.Background(), "failed to create gist client", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		OAuth:      githubClient,
		Sessions:   sessionManager,
		StateStore: redisClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	syncService, err := syncsvc.NewService(ledgerService, gistClient, sessionManager, cfg.Sync, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, authService, ledgerService, syncService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
