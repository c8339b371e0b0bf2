package learning

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/rules"
)

// Snapshotter persists and restores named state blobs.
type Snapshotter interface {
	Save(ctx context.Context, name string, payload any) error
	Load(ctx context.Context, name string, dst any) (bool, error)
	Delete(ctx context.Context, name string) error
}

// RulesSource provides the active rule set.
type RulesSource interface {
	Get() *rules.Set
}
