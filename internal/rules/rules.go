// Package rules holds the locale tables that drive query analysis, item
// tagging, linking and note generation. Tables are YAML data: a default set
// is embedded in the binary and an operator file can replace it at runtime.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only rule file version this build understands.
const CurrentVersion = 1

//go:embed default.yaml
var defaultYAML []byte

// Set is a compiled rule set. It is immutable once returned by Parse.
type Set struct {
	Version    int            `yaml:"version"`
	Analyzer   AnalyzerRules  `yaml:"analyzer"`
	Catalog    CatalogRules   `yaml:"catalog"`
	Linking    LinkingRules   `yaml:"linking"`
	Notes      NoteRules      `yaml:"notes"`
	CrossLinks CrossLinkRules `yaml:"cross_links"`
}

// PatternRule maps a regular expression to a label.
type PatternRule struct {
	Label      string  `yaml:"label"`
	Pattern    string  `yaml:"pattern"`
	Confidence float64 `yaml:"confidence"`

	re *regexp.Regexp
}

// Match reports whether s matches the rule.
func (r PatternRule) Match(s string) bool {
	return r.re != nil && r.re.MatchString(s)
}

// NumberRule turns a literal number in a query into a typed entity.
type NumberRule struct {
	Value    string  `yaml:"value"`
	Type     string  `yaml:"type"`
	Text     string  `yaml:"text"`
	Weight   float64 `yaml:"weight"`
	Category string  `yaml:"category"`
}

// Gazetteer is a flat list of names sharing one weight and category.
type Gazetteer struct {
	Weight   float64  `yaml:"weight"`
	Category string   `yaml:"category"`
	Names    []string `yaml:"names"`
}

// AreaEntry is one industrial area with its alternative spellings.
type AreaEntry struct {
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Colloquial []string `yaml:"colloquial"`
}

// AreaGazetteer groups industrial areas.
type AreaGazetteer struct {
	Weight   float64     `yaml:"weight"`
	Category string      `yaml:"category"`
	Entries  []AreaEntry `yaml:"entries"`
}

// ActivityEntry is one activity with colloquial synonyms.
type ActivityEntry struct {
	Name       string   `yaml:"name"`
	Colloquial []string `yaml:"colloquial"`
	Category   string   `yaml:"category"`
	Weight     float64  `yaml:"weight"`
}

// RelevanceRule raises an entity's intent relevance.
type RelevanceRule struct {
	Intent     string  `yaml:"intent"`
	EntityType string  `yaml:"entity_type"`
	Boost      float64 `yaml:"boost"`
}

// Replacement rewrites a word or phrase.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// MarkerRule assigns Type when any marker is contained in the text.
type MarkerRule struct {
	Type    string   `yaml:"type"`
	Markers []string `yaml:"markers"`
}

// AnalyzerRules drive query analysis.
type AnalyzerRules struct {
	StopWords           []string            `yaml:"stop_words"`
	Intents             []PatternRule       `yaml:"intents"`
	SecondaryIntents    []PatternRule       `yaml:"secondary_intents"`
	QueryTypes          []PatternRule       `yaml:"query_types"`
	Conjunctions        string              `yaml:"conjunctions"`
	AmbiguousTerms      []string            `yaml:"ambiguous_terms"`
	AmbiguousRatio      float64             `yaml:"ambiguous_ratio"`
	ComplexityGazetteer []string            `yaml:"complexity_gazetteer"`
	ColloquialMarkers   []string            `yaml:"colloquial_markers"`
	FormalMarkers       []string            `yaml:"formal_markers"`
	LocationTerms       []string            `yaml:"location_terms"`
	ActivityTerms       []string            `yaml:"activity_terms"`
	QuestionPattern     string              `yaml:"question_pattern"`
	Numbers             []NumberRule        `yaml:"numbers"`
	Governorates        Gazetteer           `yaml:"governorates"`
	IndustrialAreas     AreaGazetteer       `yaml:"industrial_areas"`
	Activities          []ActivityEntry     `yaml:"activities"`
	IntentRelevance     []RelevanceRule     `yaml:"intent_relevance"`
	Dialect             []Replacement       `yaml:"dialect"`
	ColloquialStopWords []string            `yaml:"colloquial_stop_words"`
	IntentExpansion     map[string]string   `yaml:"intent_expansion"`
	IntentMarkers       map[string][]string `yaml:"intent_markers"`
	LearnedTypes        []MarkerRule        `yaml:"learned_types"`

	conjunctions *regexp.Regexp
	question     *regexp.Regexp
}

// ConjunctionCount returns the number of conjunction matches in s.
func (a *AnalyzerRules) ConjunctionCount(s string) int {
	if a.conjunctions == nil {
		return 0
	}
	return len(a.conjunctions.FindAllStringIndex(s, -1))
}

// MatchesIntent reports whether s carries one of the markers of intent.
func (a *AnalyzerRules) MatchesIntent(s, intent string) bool {
	for _, m := range a.IntentMarkers[intent] {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsQuestion reports whether s reads as a question.
func (a *AnalyzerRules) IsQuestion(s string) bool {
	return a.question != nil && a.question.MatchString(s)
}

// TagRule adds Tags when any marker is contained in the text.
type TagRule struct {
	Markers []string `yaml:"markers"`
	Tags    []string `yaml:"tags"`
}

// Variant adds Label when Marker is contained in the text.
type Variant struct {
	Marker string `yaml:"marker"`
	Label  string `yaml:"label"`
}

// EntityTypeRule lists the entity types of a collection.
type EntityTypeRule struct {
	Base     string    `yaml:"base"`
	Variants []Variant `yaml:"variants"`
}

// CategoryRule assigns Label when any marker is contained in the text.
type CategoryRule struct {
	Markers []string `yaml:"markers"`
	Label   string   `yaml:"label"`
}

// CatalogRules derive item tags at load time. Maps are keyed by collection name.
type CatalogRules struct {
	DefaultCategory  string                    `yaml:"default_category"`
	SemanticTags     []TagRule                 `yaml:"semantic_tags"`
	EntityTypes      map[string]EntityTypeRule `yaml:"entity_types"`
	Categories       map[string][]CategoryRule `yaml:"categories"`
	KeyGovernorates  []string                  `yaml:"key_governorates"`
	KeyAreas         []string                  `yaml:"key_areas"`
	ImportantNumbers []string                  `yaml:"important_numbers"`
}

// ContextRule names a topical context by its markers.
type ContextRule struct {
	Name    string   `yaml:"name"`
	Markers []string `yaml:"markers"`
}

// SuccessSuggestions are attached to resolved links.
type SuccessSuggestions struct {
	HighConfidence string `yaml:"high_confidence"`
	Contextual     string `yaml:"contextual"`
	Learned        string `yaml:"learned"`
}

// LinkingRules drive the cross-collection linker.
type LinkingRules struct {
	StopWords              []string           `yaml:"stop_words"`
	StrategyTechnicalTerms []string           `yaml:"strategy_technical_terms"`
	TechnicalTerms         []string           `yaml:"technical_terms"`
	ZoneTechnicalMarkers   []string           `yaml:"zone_technical_markers"`
	Contexts               []ContextRule      `yaml:"contexts"`
	Incompatible           [][]string         `yaml:"incompatible"`
	FallbackSuggestions    []string           `yaml:"fallback_suggestions"`
	SuccessSuggestions     SuccessSuggestions `yaml:"success_suggestions"`
}

// ActionRule suggests follow-up actions for items mentioning Marker.
type ActionRule struct {
	Marker  string   `yaml:"marker"`
	Actions []string `yaml:"actions"`
}

// FactRule attaches a quick fact to items mentioning Marker.
type FactRule struct {
	Marker string `yaml:"marker"`
	Fact   string `yaml:"fact"`
}

// ConfidenceLevels are the labels of the score buckets.
type ConfidenceLevels struct {
	High   string `yaml:"high"`
	Medium string `yaml:"medium"`
	Low    string `yaml:"low"`
	Weak   string `yaml:"weak"`
}

// Note template groups.
const (
	NoteHigh         = "high"
	NoteMedium       = "medium"
	NoteLow          = "low"
	NoteDecisionLink = "decision_link"
	NoteAreaLink     = "area_link"
	NoteLicensing    = "licensing"
	NoteTechnical    = "technical"
)

// NoteRules drive per-result notes and smart metadata.
type NoteRules struct {
	Templates        map[string][]string `yaml:"templates"`
	AreaMarkers      []string            `yaml:"area_markers"`
	SmartLink        string              `yaml:"smart_link"`
	ConfidenceLevels ConfidenceLevels    `yaml:"confidence_levels"`
	Actions          []ActionRule        `yaml:"actions"`
	Facts            []FactRule          `yaml:"facts"`
}

// MarkerLink links two items whose texts carry the given markers.
type MarkerLink struct {
	ActivityMarker string  `yaml:"activity_marker"`
	ZoneMarker     string  `yaml:"zone_marker"`
	DecisionMarker string  `yaml:"decision_marker"`
	Confidence     float64 `yaml:"confidence"`
	Note           string  `yaml:"note"`
}

// OverlapLink links two items by keyword overlap above Threshold.
type OverlapLink struct {
	Threshold float64 `yaml:"threshold"`
	Note      string  `yaml:"note"`
}

// CrossLinkRules drive links between result collections.
type CrossLinkRules struct {
	ActivityDecision OverlapLink `yaml:"activity_decision"`
	ActivityZone     MarkerLink  `yaml:"activity_zone"`
	ZoneDecision     MarkerLink  `yaml:"zone_decision"`
}

// Default returns the embedded rule set.
func Default() *Set {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("rules: embedded default is invalid: %v", err))
	}
	return s
}

// Load reads and compiles a rule file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles YAML rule data.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Set) compile() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("rules version %d: unsupported (want %d)", s.Version, CurrentVersion)
	}
	a := &s.Analyzer
	if len(a.Intents) == 0 {
		return fmt.Errorf("rules: analyzer.intents is empty")
	}
	for _, group := range [][]PatternRule{a.Intents, a.SecondaryIntents, a.QueryTypes} {
		for i := range group {
			re, err := regexp.Compile(group[i].Pattern)
			if err != nil {
				return fmt.Errorf("rules: pattern %q for %q: %w", group[i].Pattern, group[i].Label, err)
			}
			group[i].re = re
		}
	}

	var err error
	if a.Conjunctions != "" {
		if a.conjunctions, err = regexp.Compile(a.Conjunctions); err != nil {
			return fmt.Errorf("rules: conjunctions: %w", err)
		}
	}
	if a.QuestionPattern != "" {
		if a.question, err = regexp.Compile(a.QuestionPattern); err != nil {
			return fmt.Errorf("rules: question_pattern: %w", err)
		}
	}

	for _, pair := range s.Linking.Incompatible {
		if len(pair) != 2 {
			return fmt.Errorf("rules: linking.incompatible entries must be pairs, got %v", pair)
		}
	}
	for name, tpl := range s.Notes.Templates {
		if len(tpl) == 0 {
			return fmt.Errorf("rules: notes.templates.%s is empty", name)
		}
	}
	return nil
}
