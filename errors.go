package linkdex

import "github.com/kailas-cloud/linkdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrEmptyQuery             = domain.ErrEmptyQuery
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrUnknownCollection      = domain.ErrUnknownCollection
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
)
