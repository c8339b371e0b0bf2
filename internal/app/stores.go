package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/config"
	"github.com/kailas-cloud/linkdex/internal/db"
	dbBadger "github.com/kailas-cloud/linkdex/internal/db/badger"
	"github.com/kailas-cloud/linkdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/linkdex/internal/db/redis"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/repository/dataset"
)

// OpenStore creates the state store selected by cfg.Driver and waits until
// it answers.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverBadger:
		store, err = dbBadger.Open(dbBadger.Config{Path: cfg.Path, Logger: logger})
	case config.DriverMemory, "":
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s store not ready: %w", cfg.Driver, err)
	}
	return store, nil
}

// NewDataset maps the configured file names onto a dataset reader.
func NewDataset(cfg config.DatasetConfig, logger *zap.Logger) *dataset.Repo {
	return dataset.New(cfg.Dir, dataset.Files{
		Vectors: map[collection.Kind]string{
			collection.Activities: cfg.Activities,
			collection.Zones:      cfg.Zones,
			collection.Decisions:  cfg.Decisions,
		},
		Records: map[collection.Kind]string{
			collection.Activities: cfg.ActivityRecords,
			collection.Zones:      cfg.ZoneRecords,
			collection.Decisions:  cfg.DecisionRecords,
		},
	}, logger)
}
