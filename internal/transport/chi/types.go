package chi

// ErrorCode is a machine readable error kind.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeCollectionNotFound     ErrorCode = "collection_not_found"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query               string `json:"query" validate:"required,max=4096"`
	ContextType         string `json:"context_type,omitempty" validate:"omitempty,max=64"`
	SessionID           string `json:"session_id,omitempty" validate:"omitempty,max=128"`
	RequireConfirmation bool   `json:"require_confirmation,omitempty"`
}

// LinkRequest is the body of POST /v1/link.
type LinkRequest struct {
	CandidateID  string   `json:"candidate_id,omitempty" validate:"omitempty,max=256"`
	Text         string   `json:"text" validate:"required,max=4096"`
	Collection   string   `json:"collection" validate:"required"`
	Conversation []string `json:"conversation,omitempty" validate:"max=20,dive,max=4096"`
}

// FeedbackRequest is the body of POST /v1/link/feedback.
type FeedbackRequest struct {
	Text       string `json:"text" validate:"required,max=4096"`
	Collection string `json:"collection" validate:"required"`
	RecordID   string `json:"record_id" validate:"required,max=256"`
}

// FeedbackResponse acknowledges a learned link.
type FeedbackResponse struct {
	Learned bool `json:"learned"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	Collections map[string]int    `json:"collections,omitempty"`
}
