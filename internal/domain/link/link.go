package link

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
)

// Strategy is the closed set of text-matching strategies.
type Strategy string

const (
	// KeywordOverlap scores by shared keywords (substring either way).
	KeywordOverlap Strategy = "semantic_keywords"
	// EnhancedSemantic adds main-term hits and penalises context mismatch.
	EnhancedSemantic Strategy = "enhanced_semantic"
	// ContextualSimilarity adds conversation-history overlap.
	ContextualSimilarity Strategy = "contextual_similarity"
	// TechnicalPattern scores by shared technical vocabulary.
	TechnicalPattern Strategy = "technical_pattern"
	// ExactID marks a record resolved by its identifier.
	ExactID Strategy = "exact_id"
	// Fallback marks an unresolved result.
	Fallback Strategy = "fallback"
)

// Strategies returns the scoring strategies in escalation order.
func Strategies() []Strategy {
	return []Strategy{KeywordOverlap, EnhancedSemantic, ContextualSimilarity, TechnicalPattern}
}

// IsValid checks if s is a scoring strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case KeywordOverlap, EnhancedSemantic, ContextualSimilarity, TechnicalPattern:
		return true
	}
	return false
}

// Record is an authoritative full record of a collection.
type Record struct {
	ID          string            `json:"id"`
	Text        string            `json:"text,omitempty"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Governorate string            `json:"governorate,omitempty"`
	Sector      string            `json:"sector,omitempty"`
	Category    string            `json:"category,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// SearchText is the first non-empty of Text, Name, Description, then any
// detail value longer than 10 runes (in key order).
func (r Record) SearchText() string {
	for _, s := range []string{r.Text, r.Name, r.Description} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if utf8.RuneCountInString(r.Details[k]) > 10 {
			return r.Details[k]
		}
	}
	return ""
}

// HasAuxiliary reports whether the record carries details or metadata.
func (r Record) HasAuxiliary() bool {
	return len(r.Details) > 0 || len(r.Metadata) > 0
}

// Request asks the linker to resolve a candidate to a full record of Collection.
type Request struct {
	CandidateID  string
	Text         string
	Collection   collection.Kind
	Conversation []string
}

// Result is the outcome of one link call.
type Result struct {
	Record      *Record  `json:"record,omitempty"`
	Confidence  float64  `json:"confidence"`
	Strategy    Strategy `json:"strategy"`
	Fingerprint string   `json:"fingerprint"`
	Suggestions []string `json:"suggestions,omitempty"`
	Escalated   bool     `json:"escalated,omitempty"`
	FromCache   bool     `json:"from_cache,omitempty"`
}

// Resolved reports whether a record was found.
func (r Result) Resolved() bool { return r.Record != nil }

// CrossLink relates two result items of different collections.
type CrossLink struct {
	From       Ref     `json:"from"`
	To         Ref     `json:"to"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note"`
}

// Ref points at an item of a collection.
type Ref struct {
	Collection collection.Kind `json:"collection"`
	ID         string          `json:"id"`
}

// Cross link kinds.
const (
	ActivityDecision = "activity_decision"
	ActivityZone     = "activity_zone"
	ZoneDecision     = "zone_decision"
)
