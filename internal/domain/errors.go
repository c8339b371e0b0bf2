package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnknownCollection signals a collection name outside activities/zones/decisions.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyQuery signals a query with no searchable text.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidRecord signals a source record that cannot be loaded.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding provider not configured")
)
