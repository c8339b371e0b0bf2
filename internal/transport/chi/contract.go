package chi

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/linkdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/linkdex/internal/usecase/search"
)

// SearchService answers searches and reports engine state.
type SearchService interface {
	IntelligentSearch(ctx context.Context, raw string, opts searchuc.Options) result.Response
	Stats() searchuc.Stats
	ClearCache()
	ResetLearning(ctx context.Context) error
}

// Linker resolves candidates to full records and learns from feedback.
type Linker interface {
	Link(ctx context.Context, req link.Request) (link.Result, error)
	Learn(candidateText string, kind collection.Kind, recordID string) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
