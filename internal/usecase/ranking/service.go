// Package ranking runs the three-stage retrieval pipeline over the
// collections: fast candidate generation, contextual deep scoring and a
// tag-aware rerank, then resolves top candidates through a Linker.
package ranking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/metrics"
)

// Results holds the ranked candidates of every collection.
type Results map[collection.Kind][]candidate.Candidate

// Total counts candidates across collections.
func (r Results) Total() int {
	n := 0
	for _, cs := range r {
		n += len(cs)
	}
	return n
}

// Config sizes the stages.
type Config struct {
	FastLimit  int
	DeepLimit  int
	FinalLimit int
	LinkTopN   int
	Weights    Weights
}

// DefaultConfig returns the 50/20/15 stage sizes and default weights.
func DefaultConfig() Config {
	return Config{FastLimit: 50, DeepLimit: 20, FinalLimit: 15, LinkTopN: 3, Weights: DefaultWeights()}
}

// Service ranks candidates. It holds no per-request state.
type Service struct {
	searcher Searcher
	rules    RulesSource
	linker   Linker
	pool     Submitter
	cfg      Config
	logger   *zap.Logger
}

// New creates a ranking pipeline. pool may be nil to run the fast stage
// sequentially; linker may be nil to skip Resolve.
func New(
	searcher Searcher, rs RulesSource, linker Linker, pool Submitter, cfg Config, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		searcher: searcher,
		rules:    rs,
		linker:   linker,
		pool:     pool,
		cfg:      cfg,
		logger:   logger,
	}
}

// Rank runs the fast, deep and rerank stages for every collection.
// A collection with no fast candidates is skipped by the later stages.
func (s *Service) Rank(ctx context.Context, vector []float32, q query.Analysis) (Results, error) {
	fast, err := s.fast(ctx, vector, q)
	if err != nil {
		return nil, err
	}

	a := &s.rules.Get().Analyzer
	out := make(Results, len(fast))

	start := time.Now()
	for _, kind := range collection.All() {
		cs := fast[kind]
		if len(cs) == 0 {
			continue
		}
		if len(cs) > s.cfg.DeepLimit {
			cs = cs[:s.cfg.DeepLimit]
		}
		deep(a, cs, q, s.cfg.Weights)
		metrics.SearchStageCandidates.WithLabelValues("deep", kind.String()).Observe(float64(len(cs)))
		out[kind] = cs
	}
	metrics.SearchStageDuration.WithLabelValues("deep").Observe(time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	start = time.Now()
	for kind, cs := range out {
		rerank(cs, q)
		if len(cs) > s.cfg.FinalLimit {
			cs = cs[:s.cfg.FinalLimit]
		}
		metrics.SearchStageCandidates.WithLabelValues("rerank", kind.String()).Observe(float64(len(cs)))
		out[kind] = cs
	}
	metrics.SearchStageDuration.WithLabelValues("rerank").Observe(time.Since(start).Seconds())

	return out, nil
}

// fast searches the collections concurrently and joins before returning.
func (s *Service) fast(ctx context.Context, vector []float32, q query.Analysis) (Results, error) {
	start := time.Now()
	kinds := collection.All()
	found := make([][]candidate.Candidate, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		task := func() {
			defer wg.Done()
			found[i] = s.searcher.Search(kind, vector, q, s.cfg.FastLimit)
		}
		wg.Add(1)
		if s.pool == nil {
			task()
			continue
		}
		if err := s.pool.Submit(task); err != nil {
			s.logger.Warn("Worker pool rejected fast search, running inline",
				zap.String("collection", kind.String()),
				zap.Error(err),
			)
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fast stage: %w", err)
	}

	out := make(Results, len(kinds))
	for i, kind := range kinds {
		metrics.SearchStageCandidates.WithLabelValues("fast", kind.String()).Observe(float64(len(found[i])))
		if len(found[i]) > 0 {
			out[kind] = found[i]
		}
	}
	metrics.SearchStageDuration.WithLabelValues("fast").Observe(time.Since(start).Seconds())
	return out, nil
}

// Resolve links the top candidates of the activities and zones collections
// to full records. Linker errors are logged and the candidate is left as is.
func (s *Service) Resolve(ctx context.Context, results Results, rawQuery string, history []string) {
	if s.linker == nil {
		return
	}
	start := time.Now()
	defer func() {
		metrics.SearchStageDuration.WithLabelValues("link").Observe(time.Since(start).Seconds())
	}()

	for _, kind := range []collection.Kind{collection.Activities, collection.Zones} {
		cs := results[kind]
		for i := 0; i < len(cs) && i < s.cfg.LinkTopN; i++ {
			c := &cs[i]
			preview := c.Item.Preview()
			if preview == "" {
				continue
			}
			res, err := s.linker.Link(ctx, link.Request{
				CandidateID:  c.ID(),
				Text:         preview,
				Collection:   kind,
				Conversation: history,
			})
			if err != nil {
				s.logger.Warn("Link failed",
					zap.String("collection", kind.String()),
					zap.String("id", c.ID()),
					zap.String("query", rawQuery),
					zap.Error(err),
				)
				if ctx.Err() != nil {
					return
				}
				continue
			}
			c.Link = &res
		}
	}
}
