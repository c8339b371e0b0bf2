package search

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	"github.com/kailas-cloud/linkdex/internal/rules"
	"github.com/kailas-cloud/linkdex/internal/usecase/cache"
	"github.com/kailas-cloud/linkdex/internal/usecase/learning"
	"github.com/kailas-cloud/linkdex/internal/usecase/linking"
	"github.com/kailas-cloud/linkdex/internal/usecase/ranking"
)

// Analyzer classifies queries.
type Analyzer interface {
	Analyze(raw, contextType string) query.Analysis
	ExpandForIntent(raw string, in query.Intent) string
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Ranker runs the retrieval pipeline and resolves top candidates.
type Ranker interface {
	Rank(ctx context.Context, vector []float32, q query.Analysis) (ranking.Results, error)
	Resolve(ctx context.Context, results ranking.Results, rawQuery string, history []string)
}

// Learner is the learning store.
type Learner interface {
	RecordQuery(a query.Analysis)
	LearnFrom(previews []string) int
	RecordConfidence(score float64)
	RecordCrossLinks(raw string, links []link.CrossLink)
	Stats() learning.Stats
	Persist(ctx context.Context) error
	Reset(ctx context.Context) error
}

// ResponseCache caches whole responses by query.
type ResponseCache interface {
	Get(key string) (cache.Entry[result.Response], bool)
	Put(key string, payload result.Response, confidence float64)
	Clear()
	Stats() cache.Stats
}

// LinkCache is the maintenance surface of the linker cache.
type LinkCache interface {
	Clear()
	Reset(ctx context.Context) error
	Stats() cache.Stats
}

// LinkReporter reports linker activity.
type LinkReporter interface {
	Report() linking.Report
}

// Sizer reports the loaded collection sizes.
type Sizer interface {
	Sizes() map[collection.Kind]int
}

// RulesSource returns the current rule set.
type RulesSource interface {
	Get() *rules.Set
}

// Snapshotter persists conversation history.
type Snapshotter interface {
	Save(ctx context.Context, name string, payload any) error
	Load(ctx context.Context, name string, dst any) (bool, error)
}

// Submitter runs fire-and-forget tasks.
type Submitter interface {
	Submit(task func()) error
}
