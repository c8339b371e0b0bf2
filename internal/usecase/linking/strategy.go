package linking

import (
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

const shortPreviewRunes = 50

// selectStrategy picks the first strategy for a candidate of kind.
func selectStrategy(r *rules.LinkingRules, kind collection.Kind, preview string, conversation []string) link.Strategy {
	switch kind {
	case collection.Activities:
		switch {
		case text.RuneLen(preview) < shortPreviewRunes:
			return link.EnhancedSemantic
		case len(conversation) > 0:
			return link.ContextualSimilarity
		case text.ContainsAny(preview, r.StrategyTechnicalTerms...):
			return link.TechnicalPattern
		}
		return link.KeywordOverlap
	case collection.Zones:
		if text.HasDigit(preview) || text.ContainsAny(preview, r.ZoneTechnicalMarkers...) {
			return link.TechnicalPattern
		}
		return link.KeywordOverlap
	case collection.Decisions:
		return link.EnhancedSemantic
	}
	return link.KeywordOverlap
}
