// Package main is the entry point for the notes server.
//
// The main package is kept minimal. Its job is to:
// 1. Read configuration (env vars and an optional .env file)
// 2. Create dependencies (logger, store)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/notekeeper/internal/config"
	"github.com/sakif/notekeeper/internal/repository"
	"github.com/sakif/notekeeper/internal/server"
	"github.com/sakif/notekeeper/internal/storage"
)

const storeConnectTimeout = 15 * time.Second

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.GeneratedSecret {
		logger.Warn("JWT_SECRET not set; using a random key, tokens will not survive a restart")
	}

	// === 3. OPEN THE STORE ===
	backend, target, err := storage.Parse(cfg.DatabaseURL)
	if err != nil {
		logger.Error("invalid DATABASE_URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// SQLite creates the file but not its directory.
	if backend == storage.BackendSQLite {
		dir := filepath.Dir(target)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	open := func(ctx context.Context) (repository.Store, error) {
		ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
		defer cancel()
		return storage.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	}

	store, err := open(context.Background())
	if err != nil {
		if cfg.StoreStartup == config.StartupFailFast {
			logger.Error("failed to open store",
				slog.String("backend", string(backend)),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Warn("store unavailable, serving in degraded mode",
			slog.String("backend", string(backend)),
			slog.String("error", err.Error()),
		)
		store = storage.NewLazy(open, err, logger)
	} else {
		logger.Info("store connected", slog.String("backend", string(backend)))
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:         cfg.Port,
		StaticDir:    cfg.StaticDir,
		CORSOrigins:  cfg.CORSOrigins,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
		BcryptCost:   cfg.BcryptCost,
		RequireToken: cfg.RequireToken,
	}, store, logger)
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
