// Package search is the session-level entry point: it analyzes a query,
// embeds it, runs the ranking pipeline, links and annotates the results and
// keeps the caches, the learning store and the conversation memory current.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/metrics"
	"github.com/kailas-cloud/linkdex/internal/rules"
	"github.com/kailas-cloud/linkdex/internal/usecase/cache"
	"github.com/kailas-cloud/linkdex/internal/usecase/learning"
	"github.com/kailas-cloud/linkdex/internal/usecase/linking"
	"github.com/kailas-cloud/linkdex/internal/usecase/ranking"
	"github.com/kailas-cloud/linkdex/internal/usecase/similarity"
)

const persistTimeout = 5 * time.Second

// Options are the per-call search options.
type Options struct {
	ContextType         string
	RequireConfirmation bool
	// SessionID selects the conversation. Empty starts a new one.
	SessionID string
}

// Config holds the orchestration tunables.
type Config struct {
	EmbedTimeout   time.Duration
	RequestTimeout time.Duration
	MinConfidence  float64
	MaxThreshold   float64
	MaxNotes       int
	CrossLinkTopN  int
	// LearnScore is the hit score above which previews feed the learning store.
	LearnScore float64
	// ConfirmScore is the best score below which a confirmation is requested.
	ConfirmScore       float64
	HistoryLimit       int
	ConversationWindow int
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		EmbedTimeout:       5 * time.Second,
		RequestTimeout:     15 * time.Second,
		MinConfidence:      0.15,
		MaxThreshold:       0.7,
		MaxNotes:           3,
		CrossLinkTopN:      5,
		LearnScore:         0.7,
		ConfirmScore:       0.6,
		HistoryLimit:       20,
		ConversationWindow: 5,
	}
}

// Deps are the collaborators of the orchestrator. Embedder, LinkCache,
// Linker, Sessions and Pool may be nil.
type Deps struct {
	Analyzer  Analyzer
	Embedder  Embedder
	Ranker    Ranker
	Learning  Learner
	Cache     ResponseCache
	LinkCache LinkCache
	Linker    LinkReporter
	Catalog   Sizer
	Rules     RulesSource
	Sessions  Snapshotter
	Pool      Submitter
	Logger    *zap.Logger
}

// Stats is the engine performance report.
type Stats struct {
	TotalSearches      int                     `json:"total_searches"`
	SuccessfulSearches int                     `json:"successful_searches"`
	AverageResponseMs  float64                 `json:"average_response_ms"`
	CacheHitRate       float64                 `json:"cache_hit_rate"`
	IntentAccuracy     float64                 `json:"intent_accuracy"`
	NotesCount         int                     `json:"notes_count"`
	CrossLinkCount     int                     `json:"cross_link_count"`
	Sessions           int                     `json:"sessions"`
	Collections        map[collection.Kind]int `json:"collections"`
	Learning           learning.Stats          `json:"learning"`
	SearchCache        cache.Stats             `json:"search_cache"`
	LinkCache          cache.Stats             `json:"link_cache"`
	Linker             *linking.Report         `json:"linker,omitempty"`
}

type counters struct {
	total      int
	successful int
	cacheHits  int
	confident  int
	notes      int
	crossLinks int
	elapsed    time.Duration
}

// Service runs intelligent searches. It is safe for concurrent use.
type Service struct {
	deps     Deps
	cfg      Config
	logger   *zap.Logger
	sessions *sessions
	now      func() time.Time

	mu sync.Mutex
	c  counters
}

// New creates the orchestrator.
func New(deps Deps, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
		sessions: newSessions(deps.Sessions, deps.Pool, cfg.HistoryLimit, cfg.ConversationWindow, logger),
		now:      time.Now,
	}
}

func cacheKey(raw string, opts Options) string {
	return text.Normalize(raw) + "|" + opts.ContextType + "|" + strconv.FormatBool(opts.RequireConfirmation)
}

// IntelligentSearch answers raw. It never fails: internal errors and panics
// yield a fallback response with empty collections and Analysis.Error set.
func (s *Service) IntelligentSearch(ctx context.Context, raw string, opts Options) (resp result.Response) {
	start := s.now()
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.ContextType == "" {
		opts.ContextType = "general"
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Search panicked", zap.String("query", raw), zap.Any("panic", r))
			resp = s.fallback(query.Empty(raw, opts.ContextType), fmt.Errorf("internal error: %v", r), opts, start)
		}
	}()

	key := cacheKey(raw, opts)
	if e, ok := s.deps.Cache.Get(key); ok {
		resp = e.Payload
		resp.SessionID = opts.SessionID
		resp.Analysis.CacheUsed = true
		s.sessions.append(opts.SessionID, Turn{Query: raw, Intent: resp.Analysis.Intent.Primary, At: start})
		s.record(resp, start, true)
		metrics.SearchRequestsTotal.WithLabelValues("cached").Inc()
		return resp
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	a := s.deps.Analyzer.Analyze(raw, opts.ContextType)
	vector := s.embed(ctx, a)

	results, err := s.deps.Ranker.Rank(ctx, vector, a)
	if err != nil {
		return s.fallback(a, err, opts, start)
	}

	history := s.sessions.history(ctx, opts.SessionID)
	rs := s.deps.Rules.Get()

	threshold := smartThreshold(a, results, s.cfg.MinConfidence, s.cfg.MaxThreshold)
	filter(results, threshold)
	links := crossLinks(&rs.CrossLinks, text.NewSet(rs.Linking.StopWords...), results, s.cfg.CrossLinkTopN)
	s.deps.Ranker.Resolve(ctx, results, raw, history)

	resp = result.Empty(analysisOf(a))
	resp.SessionID = opts.SessionID
	resp.Threshold = threshold
	if len(links) > 0 {
		resp.Links = links
	}
	for _, kind := range collection.All() {
		cs := results[kind]
		hits := make([]result.Hit, 0, len(cs))
		for _, c := range cs {
			hits = append(hits, s.hit(rs, kind, c, a))
		}
		resp.SetHits(kind, hits)
	}
	resp.Analysis.TotalResults = resp.Total()
	resp.Analysis.DurationMs = s.now().Sub(start).Milliseconds()
	resp.NeedsConfirmation = opts.RequireConfirmation &&
		(a.Complexity == query.Ambiguous || resp.BestScore() < s.cfg.ConfirmScore)

	s.learn(a, results, resp.Links)
	s.sessions.append(opts.SessionID, Turn{Query: raw, Intent: a.Intent.Primary, At: start})
	s.deps.Cache.Put(key, resp, resp.BestScore())
	s.record(resp, start, false)

	outcome := "results"
	if resp.Total() == 0 {
		outcome = "empty"
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()

	s.logger.Debug("Search completed",
		zap.String("query", raw),
		zap.String("intent", a.Intent.Primary),
		zap.Int("results", resp.Total()),
		zap.Float64("threshold", threshold),
		zap.Int64("duration_ms", resp.Analysis.DurationMs),
	)
	return resp
}

// embed vectorizes the intent-expanded query. Any failure degrades to a nil
// vector, which limits the search to the keyword index.
func (s *Service) embed(ctx context.Context, a query.Analysis) []float32 {
	if s.deps.Embedder == nil || strings.TrimSpace(a.Raw) == "" {
		return nil
	}
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}
	res, err := s.deps.Embedder.Embed(ctx, s.deps.Analyzer.ExpandForIntent(a.Raw, a.Intent))
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			s.logger.Debug("Embedding unavailable, using keyword index only")
		} else {
			s.logger.Warn("Query embedding failed, using keyword index only", zap.Error(err))
		}
		return nil
	}
	return similarity.BoostVector(res.Embedding, a.Intent.Confidence)
}

func (s *Service) hit(rs *rules.Set, kind collection.Kind, c candidate.Candidate, a query.Analysis) result.Hit {
	return result.Hit{
		ID:         c.ID(),
		Collection: kind,
		Score:      c.Final(),
		Metadata:   c.Item.Metadata(),
		Smart:      smartMetadata(rs, c, a),
		Display:    display(rs, c),
		Notes:      notesFor(&rs.Notes, kind, c, a, s.cfg.MaxNotes),
		Method:     string(c.Method),
		Link:       c.Link,
	}
}

// learn feeds the learning store and persists it in the background.
func (s *Service) learn(a query.Analysis, results ranking.Results, links []link.CrossLink) {
	l := s.deps.Learning
	l.RecordQuery(a)

	var previews []string
	sum, n := 0.0, 0
	for _, kind := range collection.All() {
		for _, c := range results[kind] {
			score := c.Final()
			if score > s.cfg.LearnScore && c.Item.Preview() != "" {
				previews = append(previews, c.Item.Preview())
			}
			if score > 0 {
				sum += score
				n++
			}
		}
	}
	if len(previews) > 0 {
		l.LearnFrom(previews)
	}
	if n > 0 {
		l.RecordConfidence(sum / float64(n))
	}
	if len(links) > 0 {
		l.RecordCrossLinks(a.Raw, links)
	}

	s.submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := l.Persist(ctx); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues("learning").Inc()
			s.logger.Warn("Failed to persist learning state", zap.Error(err))
		}
	})
}

func (s *Service) submit(task func()) {
	if s.deps.Pool == nil {
		task()
		return
	}
	if err := s.deps.Pool.Submit(task); err != nil {
		s.logger.Warn("Worker pool rejected task, running inline", zap.Error(err))
		task()
	}
}

func (s *Service) fallback(a query.Analysis, err error, opts Options, start time.Time) result.Response {
	s.logger.Error("Search failed, returning fallback", zap.String("query", a.Raw), zap.Error(err))
	resp := result.Empty(analysisOf(a))
	resp.SessionID = opts.SessionID
	resp.IsFallback = true
	resp.Analysis.Error = err.Error()
	resp.Analysis.DurationMs = s.now().Sub(start).Milliseconds()
	s.record(resp, start, false)
	metrics.SearchRequestsTotal.WithLabelValues("fallback").Inc()
	return resp
}

func analysisOf(a query.Analysis) result.Analysis {
	entities := a.Entities
	if entities == nil {
		entities = []query.Entity{}
	}
	return result.Analysis{
		Query:      a.Raw,
		Intent:     a.Intent,
		Complexity: a.Complexity,
		Register:   a.Register,
		QueryType:  a.QueryType,
		Entities:   entities,
	}
}

func (s *Service) record(resp result.Response, start time.Time, cached bool) {
	notes := 0
	for _, kind := range collection.All() {
		for _, h := range resp.Hits(kind) {
			if len(h.Notes) > 0 {
				notes++
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.total++
	s.c.elapsed += s.now().Sub(start)
	if cached {
		s.c.cacheHits++
	}
	if resp.Total() > 0 {
		s.c.successful++
	}
	if resp.Analysis.Intent.Confidence > 0.7 {
		s.c.confident++
	}
	s.c.notes += notes
	s.c.crossLinks += len(resp.Links)
}

// Stats returns the performance report.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()

	st := Stats{
		TotalSearches:      c.total,
		SuccessfulSearches: c.successful,
		NotesCount:         c.notes,
		CrossLinkCount:     c.crossLinks,
		Sessions:           s.sessions.count(),
		Collections:        s.deps.Catalog.Sizes(),
		Learning:           s.deps.Learning.Stats(),
		SearchCache:        s.deps.Cache.Stats(),
	}
	if c.total > 0 {
		n := float64(c.total)
		st.AverageResponseMs = float64(c.elapsed.Milliseconds()) / n
		st.CacheHitRate = float64(c.cacheHits) / n
		st.IntentAccuracy = float64(c.confident) / n
	}
	if s.deps.LinkCache != nil {
		st.LinkCache = s.deps.LinkCache.Stats()
	}
	if s.deps.Linker != nil {
		r := s.deps.Linker.Report()
		st.Linker = &r
	}
	return st
}

// ClearCache empties the session and durable tiers of the search and link caches.
func (s *Service) ClearCache() {
	s.deps.Cache.Clear()
	if s.deps.LinkCache != nil {
		s.deps.LinkCache.Clear()
	}
	s.logger.Info("Caches cleared")
}

// ResetLearning drops the learning state and the link pattern tier,
// including their persisted snapshots.
func (s *Service) ResetLearning(ctx context.Context) error {
	var errs []error
	if err := s.deps.Learning.Reset(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reset learning: %w", err))
	}
	if s.deps.LinkCache != nil {
		if err := s.deps.LinkCache.Reset(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reset link cache: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info("Learning state reset")
	return nil
}
