// Package main is the entry point for the NotifyDo API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (internal/config)
//  2. Create dependencies (logger, store)
//  3. Start the application (internal/server)
//
// All actual logic lives in the internal packages, which keeps them
// testable without running a process.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/notifydo/internal/config"
	"github.com/sakif/notifydo/internal/repository"
	"github.com/sakif/notifydo/internal/repository/postgres"
	"github.com/sakif/notifydo/internal/repository/sqlite"
	"github.com/sakif/notifydo/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// A bootstrap logger reports config errors before LOG_LEVEL is known.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// === 3. OPEN THE STORE ===
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openStore picks Postgres when DATABASE_URL is set and SQLite otherwise.
func openStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("using postgres store")
		return postgres.Open(ctx, cfg.DatabaseURL, logger)
	}

	// os.MkdirAll is a no-op when the directory already exists.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, err
	}

	logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
	return sqlite.New(cfg.DBPath)
}
