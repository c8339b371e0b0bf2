package analyzer

import (
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

// RulesSource returns the current rule set.
type RulesSource interface {
	Get() *rules.Set
}

// PatternSource returns the learned entity patterns.
type PatternSource interface {
	Patterns() []query.LearnedPattern
}
