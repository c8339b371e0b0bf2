package linkdex

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/linkdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/linkdex/internal/usecase/search"
)

// Collection names one of the searchable collections.
type Collection = collection.Kind

// Collections.
const (
	Activities = collection.Activities
	Zones      = collection.Zones
	Decisions  = collection.Decisions
)

type (
	// Response is a complete search answer.
	Response = result.Response
	// Hit is one annotated result.
	Hit = result.Hit
	// CrossLink relates results of two collections.
	CrossLink = link.CrossLink
	// LinkResult is a resolved candidate.
	LinkResult = link.Result
	// Record is a full dataset record.
	Record = link.Record
	// Analysis is the classification of a query.
	Analysis = query.Analysis
	// SearchOptions are the per-call search options.
	SearchOptions = searchuc.Options
	// Stats summarizes engine activity.
	Stats = searchuc.Stats
	// HealthReport is the result of a health check.
	HealthReport = healthuc.Report
)

// LinkRequest asks to resolve a candidate preview to its full record.
// Collection accepts the dataset aliases (activity, zone, decision104).
type LinkRequest struct {
	Collection   string
	CandidateID  string
	Text         string
	Conversation []string
}

// Embedder converts query text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
