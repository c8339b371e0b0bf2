package result

import (
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
)

// SmartMetadata is derived per hit for presentation.
type SmartMetadata struct {
	Relevance        float64  `json:"relevance_score"`
	ConfidenceLevel  string   `json:"confidence_level"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
	QuickFacts       []string `json:"quick_facts,omitempty"`
}

// Display holds truncated texts for list views.
type Display struct {
	Title      string `json:"title"`
	Preview    string `json:"preview"`
	Confidence string `json:"confidence"`
	Category   string `json:"category"`
	HasDetails bool   `json:"has_details"`
}

// Hit is a single returned item.
type Hit struct {
	ID         string          `json:"id"`
	Collection collection.Kind `json:"collection"`
	Score      float64         `json:"score"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Smart      SmartMetadata   `json:"smart"`
	Display    Display         `json:"display"`
	Notes      []string        `json:"notes"`
	Method     string          `json:"method"`
	Link       *link.Result    `json:"link,omitempty"`
}

// Analysis reports how the query was understood.
type Analysis struct {
	Query        string           `json:"query"`
	Intent       query.Intent     `json:"intent"`
	Complexity   query.Complexity `json:"complexity"`
	Register     query.Register   `json:"register"`
	QueryType    string           `json:"query_type"`
	Entities     []query.Entity   `json:"entities"`
	DurationMs   int64            `json:"duration_ms"`
	TotalResults int              `json:"total_results"`
	CacheUsed    bool             `json:"cache_used"`
	Error        string           `json:"error,omitempty"`
}

// Response is the well-formed answer to every search, including failed ones.
type Response struct {
	SessionID         string           `json:"session_id"`
	Activities        []Hit            `json:"activities"`
	Zones             []Hit            `json:"zones"`
	Decisions         []Hit            `json:"decisions"`
	Links             []link.CrossLink `json:"links"`
	Analysis          Analysis         `json:"analysis"`
	Threshold         float64          `json:"threshold"`
	NeedsConfirmation bool             `json:"needs_confirmation,omitempty"`
	IsFallback        bool             `json:"is_fallback"`
}

// Empty returns a response with zero-length collections.
func Empty(a Analysis) Response {
	return Response{
		Activities: []Hit{},
		Zones:      []Hit{},
		Decisions:  []Hit{},
		Links:      []link.CrossLink{},
		Analysis:   a,
	}
}

// Hits returns the hits of kind.
func (r *Response) Hits(kind collection.Kind) []Hit {
	switch kind {
	case collection.Activities:
		return r.Activities
	case collection.Zones:
		return r.Zones
	case collection.Decisions:
		return r.Decisions
	}
	return nil
}

// SetHits replaces the hits of kind. Unknown kinds are ignored.
func (r *Response) SetHits(kind collection.Kind, hits []Hit) {
	if hits == nil {
		hits = []Hit{}
	}
	switch kind {
	case collection.Activities:
		r.Activities = hits
	case collection.Zones:
		r.Zones = hits
	case collection.Decisions:
		r.Decisions = hits
	}
}

// Total counts hits across collections.
func (r *Response) Total() int {
	return len(r.Activities) + len(r.Zones) + len(r.Decisions)
}

// BestScore returns the highest hit score, 0 when empty.
func (r *Response) BestScore() float64 {
	best := 0.0
	for _, hits := range [][]Hit{r.Activities, r.Zones, r.Decisions} {
		for _, h := range hits {
			best = max(best, h.Score)
		}
	}
	return best
}
