// Package analyzer turns raw query text into a query.Analysis: complexity,
// intent, register, query type, keywords and weighted entities.
package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

// MaxExpandedRunes bounds the intent-expanded text sent to the embedder.
const MaxExpandedRunes = 500

const (
	generalQueryType = "general"
	learnedCategory  = "learned"
)

var numberRe = regexp.MustCompile(`\d+`)

// Service analyzes queries. It is safe for concurrent use.
type Service struct {
	rules    RulesSource
	patterns PatternSource
}

// New creates an analyzer. patterns may be nil.
func New(rs RulesSource, ps PatternSource) *Service {
	return &Service{rules: rs, patterns: ps}
}

// Analyze classifies raw. Blank input yields the general intent and no entities.
func (s *Service) Analyze(raw, contextType string) query.Analysis {
	if strings.TrimSpace(raw) == "" {
		return query.Empty(raw, contextType)
	}
	if contextType == "" {
		contextType = "general"
	}
	a := &s.rules.Get().Analyzer

	folded := strings.TrimSpace(text.Fold(raw))
	words := strings.Fields(folded)
	normalized := normalizeDialect(a, folded)

	out := query.Analysis{
		Raw:         raw,
		Normalized:  normalized,
		Words:       words,
		Keywords:    keywords(a, words),
		Complexity:  complexity(a, folded, words),
		Register:    register(a, folded),
		QueryType:   queryType(a, folded, normalized),
		Intent:      intent(a, folded, normalized),
		HasNumbers:  text.HasDigit(folded),
		HasLocation: text.ContainsAny(folded, a.LocationTerms...),
		HasActivity: text.ContainsAny(folded, a.ActivityTerms...),
		IsQuestion:  a.IsQuestion(folded),
		ContextType: contextType,
	}
	out.Entities = s.entities(a, folded, out.Intent)
	return out
}

// ExpandForIntent appends the intent vocabulary to raw before embedding.
func (s *Service) ExpandForIntent(raw string, in query.Intent) string {
	expanded := raw
	if extra := s.rules.Get().Analyzer.IntentExpansion[in.Primary]; extra != "" {
		expanded += " " + extra
	}
	if utf8.RuneCountInString(expanded) > MaxExpandedRunes {
		expanded = text.Prefix(expanded, MaxExpandedRunes)
	}
	return expanded
}

// MatchesIntent reports whether s carries the markers of the intent.
func (s *Service) MatchesIntent(str, intent string) bool {
	return s.rules.Get().Analyzer.MatchesIntent(str, intent)
}

func complexity(a *rules.AnalyzerRules, folded string, words []string) query.Complexity {
	n := len(words)
	multiConj := a.ConjunctionCount(folded) > 1
	switch {
	case n <= 2:
		return query.VerySimple
	case n <= 4:
		return query.Simple
	case n <= 8 && !multiConj:
		return query.Medium
	case multiConj || gazetteerHits(a, folded) > 2:
		return query.Complex
	case ambiguous(a, words):
		return query.Ambiguous
	}
	return query.Medium
}

func gazetteerHits(a *rules.AnalyzerRules, folded string) int {
	n := 0
	for _, g := range a.ComplexityGazetteer {
		if strings.Contains(folded, g) {
			n++
		}
	}
	return n
}

func ambiguous(a *rules.AnalyzerRules, words []string) bool {
	if len(words) == 0 {
		return false
	}
	terms := text.NewSet(a.AmbiguousTerms...)
	n := 0
	for _, w := range words {
		if terms.Has(w) {
			n++
		}
	}
	return n > 0 && float64(n)/float64(len(words)) > a.AmbiguousRatio
}

func register(a *rules.AnalyzerRules, folded string) query.Register {
	if !text.HasArabic(folded) {
		return query.English
	}
	colloquial, formal := 0, 0
	for _, m := range a.ColloquialMarkers {
		if strings.Contains(folded, m) {
			colloquial++
		}
	}
	for _, m := range a.FormalMarkers {
		if strings.Contains(folded, m) {
			formal++
		}
	}
	switch {
	case colloquial > formal:
		return query.EgyptianColloquial
	case formal > colloquial:
		return query.FormalArabic
	}
	return query.MixedArabic
}

// firstMatch returns the first rule matching folded, then normalized.
func firstMatch(group []rules.PatternRule, folded, normalized string) (rules.PatternRule, bool) {
	for _, s := range []string{folded, normalized} {
		for _, r := range group {
			if r.Match(s) {
				return r, true
			}
		}
		if normalized == folded {
			break
		}
	}
	return rules.PatternRule{}, false
}

func queryType(a *rules.AnalyzerRules, folded, normalized string) string {
	if r, ok := firstMatch(a.QueryTypes, folded, normalized); ok {
		return r.Label
	}
	return generalQueryType
}

func intent(a *rules.AnalyzerRules, folded, normalized string) query.Intent {
	out := query.Intent{
		Primary:    query.IntentGeneral,
		Secondary:  query.SecondaryNone,
		Confidence: query.DefaultConfidence,
	}
	if r, ok := firstMatch(a.Intents, folded, normalized); ok {
		out.Primary = r.Label
		out.Confidence = r.Confidence
	}
	if r, ok := firstMatch(a.SecondaryIntents, folded, normalized); ok {
		out.Secondary = r.Label
	}
	return out
}

// keywords are the words longer than two runes that are not stop words,
// stripped of punctuation, followed by their adjacent bigrams.
func keywords(a *rules.AnalyzerRules, words []string) []string {
	stop := text.NewSet(a.StopWords...)
	singles := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 || stop.Has(w) {
			continue
		}
		if w = text.StripPunctuation(w); w != "" {
			singles = append(singles, w)
		}
	}

	seen := text.NewSet()
	out := make([]string, 0, 2*len(singles))
	add := func(k string) {
		if !seen.Has(k) {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for _, w := range singles {
		add(w)
	}
	for i := 0; i+1 < len(singles); i++ {
		add(singles[i] + " " + singles[i+1])
	}
	return out
}

func (s *Service) entities(a *rules.AnalyzerRules, folded string, in query.Intent) []query.Entity {
	var out []query.Entity

	seenNum := text.NewSet()
	for _, num := range numberRe.FindAllString(folded, -1) {
		if seenNum.Has(num) {
			continue
		}
		seenNum[num] = struct{}{}
		for _, nr := range a.Numbers {
			if nr.Value == num {
				out = append(out, query.Entity{
					Type: query.EntityType(nr.Type), Value: num, Text: nr.Text,
					Weight: nr.Weight, Category: nr.Category,
				})
				break
			}
		}
	}

	for _, g := range a.Governorates.Names {
		if strings.Contains(folded, g) {
			out = append(out, query.Entity{
				Type: query.EntityGovernorate, Value: g, Text: g,
				Weight: a.Governorates.Weight, Category: a.Governorates.Category,
			})
		}
	}

	for _, area := range a.IndustrialAreas.Entries {
		formal := text.ContainsAny(folded, area.Name) || text.ContainsAny(folded, area.Aliases...)
		colloquial := text.ContainsAny(folded, area.Colloquial...)
		if formal || colloquial {
			out = append(out, query.Entity{
				Type: query.EntityIndustrialArea, Value: area.Name, Text: area.Name,
				Weight: a.IndustrialAreas.Weight, Category: a.IndustrialAreas.Category,
				Colloquial: colloquial,
			})
		}
	}

	for _, act := range a.Activities {
		colloquial := text.ContainsAny(folded, act.Colloquial...)
		if colloquial || strings.Contains(folded, act.Name) {
			out = append(out, query.Entity{
				Type: query.EntityActivity, Value: act.Name, Text: act.Name,
				Weight: act.Weight, Category: act.Category, Colloquial: colloquial,
			})
		}
	}

	out = append(out, s.learnedEntities(folded, out)...)

	for i := range out {
		out[i].IntentRelevance = relevance(a, out[i], in)
	}
	return out
}

func (s *Service) learnedEntities(folded string, have []query.Entity) []query.Entity {
	if s.patterns == nil {
		return nil
	}
	patterns := s.patterns.Patterns()
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Keyword < patterns[j].Keyword })

	values := text.NewSet()
	for _, e := range have {
		values[e.Value] = struct{}{}
	}
	var out []query.Entity
	for _, p := range patterns {
		if p.Keyword == "" || values.Has(p.Keyword) || !strings.Contains(folded, p.Keyword) {
			continue
		}
		values[p.Keyword] = struct{}{}
		out = append(out, query.Entity{
			Type:     p.Type,
			Value:    p.Keyword,
			Text:     p.Keyword,
			Weight:   LearnedWeight(p.Count),
			Category: learnedCategory,
			Learned:  true,
		})
	}
	return out
}

// LearnedWeight grows with the number of times a pattern was seen, up to 1.5.
func LearnedWeight(count int) float64 {
	return 1 + float64(min(count, 10))*0.05
}

func relevance(a *rules.AnalyzerRules, e query.Entity, in query.Intent) float64 {
	r := 0.5
	for _, rule := range a.IntentRelevance {
		if rule.Intent == in.Primary && query.EntityType(rule.EntityType) == e.Type {
			r += rule.Boost
		}
	}
	return min(1, r)
}
