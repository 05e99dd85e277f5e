package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/docchat/bookingbot/internal/api/router"
	"github.com/docchat/bookingbot/internal/appointments"
	"github.com/docchat/bookingbot/internal/booking"
	"github.com/docchat/bookingbot/internal/chat"
	appconfig "github.com/docchat/bookingbot/internal/config"
	"github.com/docchat/bookingbot/internal/observability/metrics"
	"github.com/docchat/bookingbot/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bookingbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Appointment persistence: Postgres when configured, JSON-lines file
	// otherwise.
	var store appointments.Store
	var lister appointments.Lister
	var logStore *chat.LogStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo := appointments.NewRepository(pool)
		store, lister = repo, repo

		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open sql db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		logStore = chat.NewLogStore(db)
	} else {
		path := cfg.AppointmentsFile
		if path == "" {
			path = "appointments.json"
		}
		fileStore := appointments.NewFileStore(path)
		store, lister = fileStore, fileStore
		logger.Warn("no DATABASE_URL configured, appointments go to file", "path", path)
	}

	// Rolling transcripts need Redis; without it the chat still works,
	// just without history.
	var transcript *chat.TranscriptStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		transcript = chat.NewTranscriptStore(client, int64(cfg.TranscriptMaxMessages), cfg.TranscriptTTL)
	} else {
		logger.Warn("no REDIS_ADDR configured, chat history disabled")
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)
	sessions := booking.NewSessionStore(cfg.SessionCapacity, cfg.SessionIdleTTL)
	saver := appointments.NewService(store, logger)
	engine := booking.NewEngine(sessions, nil, saver, logger, bookingMetrics, cfg.FieldAttempts)

	chatHandler := chat.NewHandler(engine, nil, nil, transcript, logStore, logger)
	adminHandler := appointments.NewAdminHandler(lister, logger)

	r := router.New(&router.Config{
		Logger:            logger,
		ChatHandler:       chatHandler,
		AdminAppointments: adminHandler,
		AdminAuthSecret:   cfg.AdminJWTSecret,
		MetricsHandler:    promhttp.Handler(),
	})

	// Evict idle booking sessions in the background.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case now := <-ticker.C:
				if removed := sessions.Sweep(now); removed > 0 {
					logger.Info("evicted idle booking sessions", "count", removed)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
