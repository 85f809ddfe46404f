package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/review/api"
	dbfs "github.com/garnizeh/review/db"
	"github.com/garnizeh/review/internal/config"
	"github.com/garnizeh/review/internal/db"
	"github.com/garnizeh/review/internal/jobs"
	"github.com/garnizeh/review/internal/metrics"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting review server",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("env", cfg.Env),
	)

	ctx := context.Background()

	// Open database connection
	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open DB", slog.Any("err", err))
		os.Exit(1)
	}

	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		logger.Error("failed to migrate DB", slog.Any("err", err))
		conn.Close()
		os.Exit(1)
	}

	backups := jobs.NewBackupScheduler(conn, cfg.BackupDir, cfg.BackupInterval, cfg.BackupKeep, logger)
	backups.Start(ctx)

	handler := api.SetupRoutes(cfg, version, buildTime, conn, metrics.New())

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", slog.Any("err", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}

	backups.Stop()

	// Close database connection
	if err := conn.Close(); err != nil {
		logger.Error("error closing DB", slog.Any("err", err))
	}

	logger.Info("server exited")
}
