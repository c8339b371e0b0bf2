package ranking

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

// Weights combine the deep stage sub-scores.
type Weights struct {
	Raw      float64
	Context  float64
	Semantic float64
	Intent   float64
}

// DefaultWeights are the deep stage weights.
func DefaultWeights() Weights {
	return Weights{Raw: 0.5, Context: 0.3, Semantic: 0.1, Intent: 0.1}
}

// Boost and penalty labels recorded on reranked candidates.
const (
	BoostKeyEntities = "key_entities"
	BoostSemanticTag = "semantic_tag"
	BoostIntent      = "intent"
	BoostQuality     = "quality"
	BoostIndexHit    = "index_hit"
	BoostSummary     = "summary"
	PenaltyLowRaw    = "low_raw_score"
	PenaltyLowMeta   = "low_metadata_confidence"
)

// deep scores candidates against the query context. Input is already truncated.
func deep(a *rules.AnalyzerRules, cs []candidate.Candidate, q query.Analysis, w Weights) {
	words := text.NewSet(q.Words...)
	for i := range cs {
		c := &cs[i]
		preview := text.Fold(c.Item.Preview())
		intentHit := a.MatchesIntent(preview, q.Intent.Primary)

		ctx := 0.5
		for _, kw := range q.Keywords {
			if strings.Contains(preview, kw) {
				ctx += 0.1
			}
		}
		if intentHit {
			ctx += 0.2
		}
		c.ContextScore = min(1, ctx)

		sem := 0.5
		for _, pw := range strings.Fields(preview) {
			if utf8.RuneCountInString(pw) > 2 && words.Has(pw) {
				sem += 0.05
			}
		}
		c.SemanticScore = min(1, sem)

		c.IntentScore = 0.5
		if intentHit {
			c.IntentScore = 0.8
		}

		c.DeepScore = min(1, c.Score*w.Raw+c.ContextScore*w.Context+
			c.SemanticScore*w.Semantic+c.IntentScore*w.Intent)
		c.Stage = candidate.StageDeep
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].DeepScore > cs[j].DeepScore })
}

// rerank applies tag, intent and quality boosts and clamps to [0, 1].
func rerank(cs []candidate.Candidate, q query.Analysis) {
	for i := range cs {
		c := &cs[i]
		tags := c.Item.Tags()
		s := c.DeepScore
		c.Boosts, c.Penalties = nil, nil

		if n := len(tags.KeyEntities); n > 0 {
			s += 0.05 * float64(n)
			c.Boosts = append(c.Boosts, BoostKeyEntities)
		}
		if tagMatches(tags.SemanticTags, q.Keywords) {
			s += 0.1
			c.Boosts = append(c.Boosts, BoostSemanticTag)
		}
		if c.IntentScore > 0.7 {
			s += 0.15
			c.Boosts = append(c.Boosts, BoostIntent)
		}
		if tags.QualityScore > 0.8 {
			s += 0.1
			c.Boosts = append(c.Boosts, BoostQuality)
		}
		if c.IndexHit {
			s += 0.05
			c.Boosts = append(c.Boosts, BoostIndexHit)
		}
		if text.ContainsAny(tags.Summary, q.Keywords...) {
			s += 0.05
			c.Boosts = append(c.Boosts, BoostSummary)
		}

		if c.Score < 0.3 {
			s *= 0.8
			c.Penalties = append(c.Penalties, PenaltyLowRaw)
		}
		if tags.Confidence < 0.4 {
			s *= 0.9
			c.Penalties = append(c.Penalties, PenaltyLowMeta)
		}

		c.RerankScore = clamp(s)
		c.Stage = candidate.StageRerank
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].RerankScore > cs[j].RerankScore })
}

func tagMatches(tags, keywords []string) bool {
	for _, t := range tags {
		if text.ContainsAny(t, keywords...) {
			return true
		}
	}
	return false
}

func clamp(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
