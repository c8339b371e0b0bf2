package catalog

import "github.com/kailas-cloud/linkdex/internal/rules"

// RulesSource returns the current rule set.
type RulesSource interface {
	Get() *rules.Set
}
