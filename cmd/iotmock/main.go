// iotmock is a self-contained mock IoT backend.
//
// It serves the HTTP API that device-companion client apps develop against:
// account registration and login with opaque bearer tokens, profile and
// avatar management, device registration scoped to the owning account, and
// per-device status history. All state lives in an in-memory SQLite database
// and is discarded on shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/iotmock/migrations"

	"github.com/nerrad567/iotmock/internal/account"
	"github.com/nerrad567/iotmock/internal/api"
	"github.com/nerrad567/iotmock/internal/device"
	"github.com/nerrad567/iotmock/internal/infrastructure/config"
	"github.com/nerrad567/iotmock/internal/infrastructure/database"
	"github.com/nerrad567/iotmock/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting iotmock",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration; fall back to defaults when no file exists so the
	// mock runs with zero setup.
	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Build stores on the shared connection
	userRepo := account.NewUserRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	ledger := device.NewSQLiteStatusLedger(db.DB)

	// Start API server
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Uploads: cfg.Uploads,
		Logger:  log,
		Users:   userRepo,
		Devices: deviceRepo,
		Ledger:  ledger,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("iotmock stopped")
	return nil
}

// loadConfig resolves the configuration file path and loads it. A missing
// file at the default path is not an error; the built-in defaults apply.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && os.Getenv("IOTMOCK_CONFIG") == "" {
			log.Info("no config file found, using defaults", "path", configPath)
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log.Info("configuration loaded", "path", configPath)
	return cfg, nil
}

// getConfigPath returns the configuration file path.
// Uses IOTMOCK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("IOTMOCK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the database and API server are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
