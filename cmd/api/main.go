// Package main is the entry point for the rental backend API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for goose
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/rentpoint/backend/internal/audit"
	"github.com/rentpoint/backend/internal/config"
	"github.com/rentpoint/backend/internal/handler"
	"github.com/rentpoint/backend/internal/middleware"
	"github.com/rentpoint/backend/internal/repo"
	"github.com/rentpoint/backend/internal/service"
	"github.com/rentpoint/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A .env file is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// --- Audit sink -------------------------------------------------------
	// RabbitMQ when configured, otherwise the audit_log table. Either way
	// the services treat it as fire-and-forget.
	var recorder audit.Recorder
	if cfg.AMQPURL != "" {
		amqpRec, err := audit.NewAMQPRecorder(cfg.AMQPURL, cfg.AuditQueue)
		if err != nil {
			slog.Error("failed to connect audit queue", "error", err)
			os.Exit(1)
		}
		defer amqpRec.Close()
		recorder = amqpRec
		slog.Info("audit events routed to rabbitmq", "queue", cfg.AuditQueue)
	} else {
		recorder = repo.NewAuditRepo(pool)
	}

	// --- Services ---------------------------------------------------------
	itemTypeRepo := repo.NewItemTypeRepo(pool)
	itemRepo := repo.NewItemRepo(pool)
	sessionRepo := repo.NewSessionRepo(pool)
	strikeRepo := repo.NewStrikeRepo(pool)

	scheduler := service.NewExpiryScheduler(cfg.ReservationTTL)
	strikeSvc := service.NewStrikeService(strikeRepo, recorder)
	sessionSvc := service.NewSessionService(sessionRepo, strikeSvc, scheduler, recorder)
	itemTypeSvc := service.NewItemTypeService(itemTypeRepo)
	itemSvc := service.NewItemService(itemTypeRepo, itemRepo)

	// Timers do not survive a restart; re-arm the remaining window for every
	// reservation that was in flight, from its stored reservation_ts.
	rearmed, err := sessionSvc.RearmPending(context.Background())
	if err != nil {
		slog.Error("failed to re-arm pending reservations", "error", err)
		os.Exit(1)
	}
	if rearmed > 0 {
		slog.Info("re-armed pending reservations", "count", rearmed)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	srv := handler.NewServer(sessionSvc, itemTypeSvc, itemSvc, strikeSvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Get("/healthz", handler.Health)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthenticator(cfg.JWTSecret))
		r.Mount("/", srv.Routes())
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server", "pending_timers", scheduler.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	// Expiry timers are dropped here; RearmPending recovers them on the next
	// start from reservation_ts.
	scheduler.Stop()
	slog.Info("server stopped")
}

// runMigrations applies all pending goose migrations from the embedded FS.
// goose needs database/sql, not a pgx pool, so it gets its own connection.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	if len(results) > 0 {
		slog.Info("applied migrations", "count", len(results))
	}
	return nil
}
