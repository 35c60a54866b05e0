package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/saturnino-fabrica-de-software/reentry/internal/config"
	"github.com/saturnino-fabrica-de-software/reentry/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	version := flag.Int("version", -1, "Target version (for force action)")
	dbName := flag.String("db", "reentry", "Database name recorded by the migrator")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	logger := config.NewLoggerWithLevel(os.Stdout, cfg.Environment, cfg.LogLevel)

	db, err := database.OpenSQL(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	logger.Info("connected to database")

	migrator, err := database.NewMigrator(db, *dbName)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		logger.Info("running migrations")
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("migrations completed")

	case "down":
		logger.Info("rolling back last migration")
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("migration rolled back")

	case "version":
		v, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Info("current version", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty))

	case "force":
		if *version < 0 {
			return errors.New("version flag is required for force action")
		}
		if err := migrator.Force(*version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		logger.Info("migration version forced", slog.Int("version", *version))

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, version, force)", *action)
	}

	return nil
}
