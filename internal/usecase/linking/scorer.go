package linking

import (
	"strings"

	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

// target is a record prepared for scoring.
type target struct {
	rec      link.Record
	text     string
	keywords []string
}

func newTarget(rec link.Record, stop text.Set) target {
	t := text.Fold(rec.SearchText())
	return target{rec: rec, text: t, keywords: text.Keywords(t, stop)}
}

// input is the candidate text prepared once per link call.
type input struct {
	text         string
	keywords     []string
	mainTerms    []string
	technical    []string
	context      string
	conversation string
}

func newInput(r *rules.LinkingRules, raw string, conversation []string) input {
	folded := text.Fold(raw)
	return input{
		text:         folded,
		keywords:     text.Keywords(folded, text.NewSet(r.StopWords...)),
		mainTerms:    mainTerms(r, folded),
		technical:    containedTerms(r.TechnicalTerms, folded),
		context:      detectContext(r, folded),
		conversation: text.Fold(strings.Join(conversation, " ")),
	}
}

// Scorer rates how well a record matches the candidate text, in [0, 1].
type Scorer interface {
	Score(in input, t target) float64
}

type keywordScorer struct{}

func (keywordScorer) Score(in input, t target) float64 {
	return keywordScore(in.keywords, t.keywords)
}

type enhancedScorer struct {
	rules *rules.LinkingRules
}

func (s enhancedScorer) Score(in input, t target) float64 {
	score := keywordScore(in.keywords, t.keywords)
	for _, term := range in.mainTerms {
		if strings.Contains(t.text, term) {
			score += 0.2
		}
	}
	if mismatch(s.rules, in.context, t.text) {
		score *= 0.7
	}
	return min(1, score)
}

type contextualScorer struct{}

func (contextualScorer) Score(in input, t target) float64 {
	score := keywordScore(in.keywords, t.keywords)
	if head := text.Prefix(t.text, 30); head != "" && strings.Contains(in.conversation, head) {
		score += 0.3
	}
	return min(1, score)
}

type technicalScorer struct{}

func (technicalScorer) Score(in input, t target) float64 {
	if len(in.technical) == 0 {
		return keywordScore(in.keywords, t.keywords)
	}
	matched := 0
	for _, term := range in.technical {
		if strings.Contains(t.text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(in.technical))
}

// scorers returns one Scorer per strategy.
func scorers(r *rules.LinkingRules) map[link.Strategy]Scorer {
	return map[link.Strategy]Scorer{
		link.KeywordOverlap:       keywordScorer{},
		link.EnhancedSemantic:     enhancedScorer{rules: r},
		link.ContextualSimilarity: contextualScorer{},
		link.TechnicalPattern:     technicalScorer{},
	}
}

// keywordScore is the share of preview keywords that match an item keyword
// by substring in either direction.
func keywordScore(preview, item []string) float64 {
	matched := 0
	for _, kw := range preview {
		for _, ik := range item {
			if strings.Contains(ik, kw) || strings.Contains(kw, ik) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(max(len(preview), 1))
}

func mainTerms(r *rules.LinkingRules, folded string) []string {
	stop := text.NewSet(r.StopWords...)
	seen := text.NewSet()
	var out []string
	for _, w := range strings.Fields(folded) {
		if text.RuneLen(w) <= 3 || stop.Has(w) || text.HasDigit(w) || seen.Has(w) {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func containedTerms(terms []string, folded string) []string {
	var out []string
	for _, t := range terms {
		if t != "" && strings.Contains(folded, t) {
			out = append(out, t)
		}
	}
	return out
}

const generalContext = "عام"

func detectContext(r *rules.LinkingRules, folded string) string {
	for _, c := range r.Contexts {
		if text.ContainsAny(folded, c.Markers...) {
			return c.Name
		}
	}
	return generalContext
}

// mismatch reports whether the preview and item contexts form an incompatible pair.
func mismatch(r *rules.LinkingRules, previewCtx, itemText string) bool {
	if previewCtx == generalContext {
		return false
	}
	itemCtx := detectContext(r, itemText)
	for _, pair := range r.Incompatible {
		if (previewCtx == pair[0] && itemCtx == pair[1]) || (previewCtx == pair[1] && itemCtx == pair[0]) {
			return true
		}
	}
	return false
}
