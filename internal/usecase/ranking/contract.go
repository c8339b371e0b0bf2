package ranking

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

// Searcher produces first-stage candidates for one collection.
type Searcher interface {
	Search(kind collection.Kind, vector []float32, a query.Analysis, limit int) []candidate.Candidate
}

// Linker resolves a candidate to a full record. An error means the call was
// abandoned (context cancelled); an unresolved candidate is a fallback result.
type Linker interface {
	Link(ctx context.Context, req link.Request) (link.Result, error)
}

// Submitter runs tasks on a bounded worker pool.
type Submitter interface {
	Submit(task func()) error
}

// RulesSource provides the active rule set.
type RulesSource interface {
	Get() *rules.Set
}
