package face

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/reentry/internal/config"
	"github.com/saturnino-fabrica-de-software/reentry/internal/database"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider"
	"github.com/saturnino-fabrica-de-software/reentry/internal/service"
	"github.com/saturnino-fabrica-de-software/reentry/internal/store"
)

// Runtime holds everything the API server and the CLI share: the face
// pipeline, the loaded store and the services built on top of them.
type Runtime struct {
	Pipeline *provider.Pipeline
	Store    *store.FaceStore
	Service  *service.FaceService
	// Pool is nil for the file backend.
	Pool *pgxpool.Pool
}

// Open builds the pipeline, opens the configured store and loads it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	pipeline, err := NewPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	persister, pool, err := OpenPersister(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	faceStore := store.Open(ctx, persister, logger)

	svc := service.NewFaceService(
		pipeline,
		faceStore,
		service.NewEnrollmentService(faceStore, cfg.EmbeddingDimension, logger),
		service.NewMatchEngine(cfg.MatchThreshold, logger),
		logger,
	)

	return &Runtime{
		Pipeline: pipeline,
		Store:    faceStore,
		Service:  svc,
		Pool:     pool,
	}, nil
}

// OpenPersister returns the persister for STORE_BACKEND. For postgres it also
// runs pending migrations when AUTO_MIGRATE is set.
func OpenPersister(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Persister, *pgxpool.Pool, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.AutoMigrate {
			if err := database.MigrateUp(ctx, cfg.DatabaseURL, "reentry"); err != nil {
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations applied")
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}

		logger.Info("face store configured", slog.String("backend", cfg.StoreBackend))
		return store.NewPostgresPersister(pool), pool, nil

	case config.BackendFile, "":
		logger.Info("face store configured",
			slog.String("backend", config.BackendFile),
			slog.String("path", cfg.StorePath),
		)
		return store.NewFilePersister(cfg.StorePath), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s (supported: %s, %s)",
			cfg.StoreBackend, config.BackendFile, config.BackendPostgres)
	}
}

// CheckDatabase pings the pool. It succeeds when no database is configured.
func (r *Runtime) CheckDatabase(ctx context.Context) error {
	if r.Pool == nil {
		return nil
	}
	return database.HealthCheck(ctx, r.Pool)
}

func (r *Runtime) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}
