package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/linkdex/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 4096
	// MaxSessionIDLength bounds caller supplied session ids.
	MaxSessionIDLength = 128
	// DefaultContextType is used when the caller names no context.
	DefaultContextType = "general"
)

// Request is a validated search query.
type Request struct {
	query               string
	contextType         string
	sessionID           string
	requireConfirmation bool
}

// New validates and normalizes search parameters.
// The query is trimmed; an empty context type becomes "general".
func New(query, contextType, sessionID string, requireConfirmation bool) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrEmptyQuery)
	}
	if len(q) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if len(sessionID) > MaxSessionIDLength {
		return Request{}, fmt.Errorf("%w: session id too long (max %d bytes)", domain.ErrInvalidRequest, MaxSessionIDLength)
	}
	contextType = strings.TrimSpace(contextType)
	if contextType == "" {
		contextType = DefaultContextType
	}
	return Request{
		query:               q,
		contextType:         contextType,
		sessionID:           strings.TrimSpace(sessionID),
		requireConfirmation: requireConfirmation,
	}, nil
}

// Query returns the trimmed query text.
func (r Request) Query() string { return r.query }

// ContextType returns the caller context.
func (r Request) ContextType() string { return r.contextType }

// SessionID returns the conversation session, empty for a new one.
func (r Request) SessionID() string { return r.sessionID }

// RequireConfirmation reports whether weak answers should be flagged for confirmation.
func (r Request) RequireConfirmation() bool { return r.requireConfirmation }
