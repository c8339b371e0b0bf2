package candidate

import (
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
)

// Method tells which pass produced a candidate.
type Method string

const (
	// MethodQuickIndex marks a hit from the category/entity index.
	MethodQuickIndex Method = "quick_index"
	// MethodVector marks a hit from the weighted cosine scan.
	MethodVector Method = "vector_similarity"
)

// Stage is the last ranking stage a candidate passed.
type Stage int

// Ranking stages.
const (
	StageFast Stage = iota
	StageDeep
	StageRerank
)

// Candidate is a provisional match. Stage scores are additive; RawScore is
// never overwritten.
type Candidate struct {
	Item           item.Item
	RawScore       float64
	Representation string
	Method         Method
	IndexHit       bool

	// Score is RawScore plus the entity boost, capped at 1.
	Score       float64
	EntityBoost float64

	ContextScore  float64
	SemanticScore float64
	IntentScore   float64
	DeepScore     float64
	RerankScore   float64

	Boosts    []string
	Penalties []string
	Stage     Stage

	// Link is set when the linker resolved a full record for the candidate.
	Link *link.Result
}

// ID returns the item id.
func (c Candidate) ID() string { return c.Item.ID() }

// Final returns the score of the last completed stage.
func (c Candidate) Final() float64 {
	switch c.Stage {
	case StageRerank:
		return c.RerankScore
	case StageDeep:
		return c.DeepScore
	default:
		return c.Score
	}
}
