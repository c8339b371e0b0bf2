package linking

import (
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/rules"
	"github.com/kailas-cloud/linkdex/internal/usecase/cache"
)

// RulesSource provides the active rule set.
type RulesSource interface {
	Get() *rules.Set
}

// ResultCache stores link results and strategy patterns.
type ResultCache interface {
	Get(key string) (cache.Entry[link.Result], bool)
	Put(key string, payload link.Result, confidence float64)
	RecordPattern(fingerprint, strategy string)
	Pattern(fingerprint string) (cache.Pattern, bool)
	PersistAsync()
	Stats() cache.Stats
}
