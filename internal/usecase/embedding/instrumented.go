package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain"
)

// ErrCoolingDown is returned while the embedder is skipping calls after
// repeated provider failures.
var ErrCoolingDown = errors.New("embedding provider cooling down")

// Options tune the InstrumentedEmbedder.
type Options struct {
	// Timeout bounds a single provider call. Zero means no extra bound.
	Timeout time.Duration
	// FailureThreshold consecutive failures open the cooldown window. Zero disables it.
	FailureThreshold int
	// Cooldown is how long calls are skipped once the threshold is hit.
	Cooldown time.Duration
}

// InstrumentedEmbedder wraps Embedder with a per-call timeout, failure
// cooldown and logging. Transport metrics (requests, duration, tokens) are
// recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	opts     Options
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// NewInstrumentedEmbedder wraps an embedder with timeout and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	opts Options, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Embed delegates to the inner embedder under the configured timeout.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	if err := p.check(); err != nil {
		return domain.EmbeddingResult{}, err
	}

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		if !errors.Is(err, domain.ErrEmptyQuery) {
			p.recordFailure()
		}
		p.logger.Warn("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	p.recordSuccess()

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health: %w", err)
		}
	}
	return nil
}

func (p *InstrumentedEmbedder) check() error {
	if p.opts.FailureThreshold <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.now().Before(p.openUntil) {
		return fmt.Errorf("%w: %w", ErrCoolingDown, domain.ErrEmbeddingProviderError)
	}
	return nil
}

func (p *InstrumentedEmbedder) recordFailure() {
	if p.opts.FailureThreshold <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	if p.failures >= p.opts.FailureThreshold {
		p.openUntil = p.now().Add(p.opts.Cooldown)
		p.failures = 0
		p.logger.Warn("Embedding provider cooling down",
			zap.String("provider", p.provider),
			zap.Duration("cooldown", p.opts.Cooldown),
		)
	}
}

func (p *InstrumentedEmbedder) recordSuccess() {
	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()
}
