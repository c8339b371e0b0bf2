package health

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CatalogSizer reports the number of loaded items per collection.
type CatalogSizer interface {
	Sizes() map[collection.Kind]int
}
