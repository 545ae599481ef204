// Package services assembles the runtime dependencies selected by
// configuration.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskapi/internal/config"
	mongoInfra "github.com/fastygo/taskapi/internal/infrastructure/mongo"
	pgInfra "github.com/fastygo/taskapi/internal/infrastructure/postgres"
	"github.com/fastygo/taskapi/repository"
	boltRepo "github.com/fastygo/taskapi/repository/bolt"
	mongoRepo "github.com/fastygo/taskapi/repository/mongo"
	pgRepo "github.com/fastygo/taskapi/repository/postgres"
)

// OpenStore connects the storage driver named by cfg.Storage.Driver and
// prepares its schema.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Migrations.Enabled {
			if err := pgInfra.RunMigrations(cfg.Database.URL, cfg.Migrations.Path, logger); err != nil {
				return repository.Store{}, fmt.Errorf("migrations: %w", err)
			}
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return repository.Store{}, fmt.Errorf("postgres: %w", err)
		}
		return pgRepo.NewStore(pool), nil

	case config.DriverMongo:
		client, err := mongoInfra.NewClient(ctx, cfg.Mongo, logger)
		if err != nil {
			return repository.Store{}, fmt.Errorf("mongo: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongoRepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return repository.Store{}, fmt.Errorf("mongo indexes: %w", err)
		}
		return mongoRepo.NewStore(client, db), nil

	case config.DriverBolt:
		db, err := boltRepo.Open(cfg.Bolt.Path)
		if err != nil {
			return repository.Store{}, fmt.Errorf("bolt: %w", err)
		}
		logger.Info("opened bolt store", zap.String("path", cfg.Bolt.Path))
		return boltRepo.NewStore(db), nil

	default:
		return repository.Store{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
