package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"vetgate/internal/catalog"
	checkhandler "vetgate/internal/check/handler"
	checkmetrics "vetgate/internal/check/metrics"
	"vetgate/internal/check/poller"
	"vetgate/internal/check/ports"
	checkservice "vetgate/internal/check/service"
	checkstore "vetgate/internal/check/store"
	"vetgate/internal/intake"
	"vetgate/internal/integration"
	"vetgate/internal/platform/config"
	"vetgate/internal/platform/httpserver"
	"vetgate/internal/platform/kafka"
	"vetgate/internal/platform/lock"
	"vetgate/internal/platform/logger"
	platformredis "vetgate/internal/platform/redis"
	"vetgate/internal/provider"
	httptransport "vetgate/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when a DSN is configured, in-memory otherwise.
	var (
		store ports.CheckStore
		db    *sql.DB
	)
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		store = checkstore.NewPostgres(db)
		log.Info("using postgres check store")
	} else {
		store = checkstore.NewMemory()
		log.Warn("POSTGRES_DSN not set, using in-memory check store")
	}

	// Submit locks: Redis-backed when configured so the one-active-check rule
	// holds across instances, in-process otherwise.
	var locks lock.Keyed = lock.NewMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locks = lock.NewRedis(redisClient.Client, 30*time.Second)
		log.Info("using redis submit locks")
	}

	// Audit stream: Kafka when brokers are configured.
	auditPublisher, err := kafka.NewPublisher(cfg.Kafka, log)
	if err != nil {
		log.Error("failed to create kafka publisher", "error", err)
		os.Exit(1)
	}

	// Provider: dev mode swaps in the deterministic mock.
	var providerClient provider.Client
	if cfg.DevMode {
		providerClient = provider.NewMockClient()
		log.Warn("DEV_MODE enabled, using mock screening provider")
	} else {
		providerClient = provider.NewHTTPClient(cfg.Provider)
	}

	opts := []checkservice.Option{
		checkservice.WithLogger(log),
		checkservice.WithMetrics(checkmetrics.New()),
	}
	if auditPublisher != nil {
		defer auditPublisher.Close()
		opts = append(opts, checkservice.WithAuditPublisher(auditPublisher))
	}

	cat := catalog.SeedDefault()
	svc, err := checkservice.New(
		store,
		cat,
		integration.NewSettings(cfg.Provider, cfg.DevMode),
		providerClient,
		intake.NewValidator(),
		locks,
		opts...,
	)
	if err != nil {
		log.Error("failed to build check service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Logger:        log,
		JWTSigningKey: cfg.JWTSigningKey,
		Checks:        checkhandler.New(svc, cat, log),
		DB:            db,
		Redis:         redisClient,
	})

	if cfg.Poller.Enabled {
		go poller.New(svc, cfg.Poller.Interval, 50, log).Run(ctx)
	}

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting vetgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
