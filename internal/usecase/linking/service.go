// Package linking resolves a ranked candidate to the authoritative full
// record of its collection when the two share no stable key. Records are
// matched by text through a closed set of strategies, results are cached
// per fingerprint and successful strategies are remembered.
package linking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/metrics"
)

// FallbackConfidence is reported for unresolved candidates.
const FallbackConfidence = 0.1

// confirmedStrategy labels patterns recorded from user feedback alone.
const confirmedStrategy = "user_confirmed"

// Options hold the linking thresholds.
type Options struct {
	// LowScore triggers escalation to the other strategies.
	LowScore float64
	// AcceptScore is the bar an escalated strategy must clear.
	AcceptScore float64
	// EarlyStop ends a record scan on the first score above it.
	EarlyStop float64
	// PatternScore records a strategy pattern above it.
	PatternScore float64
	// PersistEvery requests cache persistence every that many attempts.
	PersistEvery int
}

// DefaultOptions returns the 0.4/0.5/0.9/0.8 thresholds and a persist every 10 attempts.
func DefaultOptions() Options {
	return Options{LowScore: 0.4, AcceptScore: 0.5, EarlyStop: 0.9, PatternScore: 0.8, PersistEvery: 10}
}

// Report summarizes linker activity.
type Report struct {
	Attempts          int     `json:"attempts"`
	CacheHits         int     `json:"cache_hits"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	AverageConfidence float64 `json:"average_confidence"`
	SuccessRate       float64 `json:"success_rate"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	CacheSize         int     `json:"cache_size"`
	LearnedPatterns   int     `json:"learned_patterns"`
}

type recordSet struct {
	targets []target
	byID    map[string]int
}

// Service is the linking engine. It is safe for concurrent use.
type Service struct {
	rules  RulesSource
	cache  ResultCache
	opts   Options
	logger *zap.Logger

	mu      sync.RWMutex
	records map[collection.Kind]*recordSet

	statsMu   sync.Mutex
	attempts  int
	cacheHits int
	computed  int
	succeeded int
	confSum   float64
	latency   time.Duration
}

// New creates a linker without records.
func New(rs RulesSource, c ResultCache, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rules:   rs,
		cache:   c,
		opts:    opts,
		logger:  logger,
		records: make(map[collection.Kind]*recordSet),
	}
}

// Load replaces the records of kind. The first record wins on duplicate ids.
func (s *Service) Load(kind collection.Kind, recs []link.Record) int {
	stop := s.stopWords()
	set := &recordSet{
		targets: make([]target, 0, len(recs)),
		byID:    make(map[string]int, len(recs)),
	}
	for _, r := range recs {
		if _, dup := set.byID[r.ID]; dup && r.ID != "" {
			s.logger.Warn("Skipping duplicate record", zap.String("collection", kind.String()), zap.String("id", r.ID))
			continue
		}
		if r.ID != "" {
			set.byID[r.ID] = len(set.targets)
		}
		set.targets = append(set.targets, newTarget(r, stop))
	}

	s.mu.Lock()
	s.records[kind] = set
	s.mu.Unlock()
	return len(set.targets)
}

// Sizes returns the record count per collection.
func (s *Service) Sizes() map[collection.Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[collection.Kind]int, len(s.records))
	for k, set := range s.records {
		out[k] = len(set.targets)
	}
	return out
}

func (s *Service) recordsOf(kind collection.Kind) *recordSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[kind]
}

func (s *Service) stopWords() text.Set {
	return text.NewSet(s.rules.Get().Linking.StopWords...)
}

func cacheKey(kind collection.Kind, fingerprint string) string {
	return kind.String() + "_" + fingerprint
}

// Link resolves req to a full record. An unresolved candidate yields a
// fallback result, never an error; the error is reserved for a cancelled ctx.
func (s *Service) Link(ctx context.Context, req link.Request) (link.Result, error) {
	if err := ctx.Err(); err != nil {
		return link.Result{}, fmt.Errorf("link: %w", err)
	}
	start := time.Now()
	attempt := s.countAttempt()

	fp := text.Fingerprint(req.Text, s.stopWords())

	// An exact id match is authoritative for this candidate only and must
	// not be served to other candidates sharing the same preview text.
	if res, ok := s.exactMatch(req, fp); ok {
		metrics.LinkAttemptsTotal.WithLabelValues(req.Collection.String(), string(res.Strategy), "resolved").Inc()
		metrics.LinkConfidence.WithLabelValues(req.Collection.String()).Observe(res.Confidence)
		s.recordPerformance(time.Since(start), res.Confidence)
		s.maybePersist(attempt)
		return res, nil
	}

	// Text without keywords has an empty fingerprint shared by unrelated candidates.
	cacheable := fp != ""
	key := cacheKey(req.Collection, fp)

	if cacheable {
		if e, ok := s.cache.Get(key); ok {
			s.countCacheHit()
			res := e.Payload
			res.FromCache = true
			metrics.LinkAttemptsTotal.WithLabelValues(req.Collection.String(), string(res.Strategy), "cached").Inc()
			s.maybePersist(attempt)
			return res, nil
		}
	}

	res := s.resolve(req, fp)
	if cacheable && res.Resolved() {
		s.cache.Put(key, res, res.Confidence)
		if res.Confidence > s.opts.PatternScore {
			s.cache.RecordPattern(fp, string(res.Strategy))
		}
	}

	outcome := "resolved"
	if !res.Resolved() {
		outcome = "fallback"
	}
	metrics.LinkAttemptsTotal.WithLabelValues(req.Collection.String(), string(res.Strategy), outcome).Inc()
	metrics.LinkConfidence.WithLabelValues(req.Collection.String()).Observe(res.Confidence)

	s.recordPerformance(time.Since(start), res.Confidence)
	s.maybePersist(attempt)
	return res, nil
}

func (s *Service) exactMatch(req link.Request, fp string) (link.Result, bool) {
	if req.CandidateID == "" {
		return link.Result{}, false
	}
	set := s.recordsOf(req.Collection)
	if set == nil {
		return link.Result{}, false
	}
	i, ok := set.byID[req.CandidateID]
	if !ok {
		return link.Result{}, false
	}
	rec := set.targets[i].rec
	return link.Result{Record: &rec, Confidence: 1, Strategy: link.ExactID, Fingerprint: fp}, true
}

func (s *Service) resolve(req link.Request, fp string) link.Result {
	set := s.recordsOf(req.Collection)
	if set == nil || len(set.targets) == 0 {
		s.logger.Debug("No records to link against", zap.String("collection", req.Collection.String()))
		return s.fallback(fp)
	}

	r := &s.rules.Get().Linking
	in := newInput(r, req.Text, req.Conversation)
	byStrategy := scorers(r)

	strategy := selectStrategy(r, req.Collection, in.text, req.Conversation)
	best, score := s.scan(byStrategy[strategy], in, set.targets)
	escalated := false

	if best == nil || score < s.opts.LowScore {
		best, score, strategy = s.escalate(strategy, byStrategy, in, set.targets)
		escalated = best != nil
	}
	if best == nil {
		return s.fallback(fp)
	}

	res := link.Result{
		Record:      best,
		Confidence:  score,
		Strategy:    strategy,
		Fingerprint: fp,
		Escalated:   escalated,
	}
	s.enhance(&res, in)
	return res
}

// escalate retries every other strategy in order and keeps the first whose
// best score clears AcceptScore.
func (s *Service) escalate(
	failed link.Strategy, byStrategy map[link.Strategy]Scorer, in input, targets []target,
) (*link.Record, float64, link.Strategy) {
	for _, st := range link.Strategies() {
		if st == failed {
			continue
		}
		rec, score := s.scan(byStrategy[st], in, targets)
		if rec != nil && score > s.opts.AcceptScore {
			return rec, score, st
		}
	}
	return nil, 0, link.Fallback
}

// scan returns the best scoring record, stopping on the first score above EarlyStop.
func (s *Service) scan(sc Scorer, in input, targets []target) (*link.Record, float64) {
	var best *link.Record
	bestScore := 0.0
	for i := range targets {
		score := sc.Score(in, targets[i])
		if score > bestScore {
			rec := targets[i].rec
			best, bestScore = &rec, score
		}
		if score > s.opts.EarlyStop {
			break
		}
	}
	return best, bestScore
}

// enhance raises confidence for conversation context, known patterns and
// records carrying extra data, and attaches suggestions.
func (s *Service) enhance(res *link.Result, in input) {
	sugg := s.rules.Get().Linking.SuccessSuggestions
	base := res.Confidence
	boost := 0.0

	head := text.Prefix(text.Fold(res.Record.SearchText()), 20)
	if in.conversation != "" && head != "" && strings.Contains(in.conversation, head) {
		boost += 0.15
	}
	p, learned := s.cache.Pattern(res.Fingerprint)
	if learned {
		boost += min(0.1, float64(p.SuccessCount)*0.02)
	}
	if res.Record.HasAuxiliary() {
		boost += 0.05
	}
	res.Confidence = min(1, base+boost)

	res.Suggestions = nil
	if base > 0.7 {
		res.Suggestions = append(res.Suggestions, sugg.HighConfidence)
	}
	if res.Strategy == link.ContextualSimilarity {
		res.Suggestions = append(res.Suggestions, sugg.Contextual)
	}
	if learned {
		res.Suggestions = append(res.Suggestions, sugg.Learned)
	}
}

func (s *Service) fallback(fp string) link.Result {
	return link.Result{
		Confidence:  FallbackConfidence,
		Strategy:    link.Fallback,
		Fingerprint: fp,
		Suggestions: append([]string(nil), s.rules.Get().Linking.FallbackSuggestions...),
	}
}

// Learn records a user confirmation that text resolves to recordID.
func (s *Service) Learn(candidateText string, kind collection.Kind, recordID string) error {
	if !kind.IsValid() {
		return fmt.Errorf("learn: %w: %q", domain.ErrUnknownCollection, kind)
	}
	set := s.recordsOf(kind)
	if set == nil {
		return fmt.Errorf("learn: record %q: %w", recordID, domain.ErrNotFound)
	}
	if _, ok := set.byID[recordID]; !ok {
		return fmt.Errorf("learn: record %q: %w", recordID, domain.ErrNotFound)
	}

	fp := text.Fingerprint(candidateText, s.stopWords())
	strategy := confirmedStrategy
	if p, ok := s.cache.Pattern(fp); ok && p.Strategy != "" {
		strategy = p.Strategy
	}
	s.cache.RecordPattern(fp, strategy)
	s.cache.PersistAsync()

	s.logger.Info("Learned link from user choice",
		zap.String("collection", kind.String()),
		zap.String("record_id", recordID),
		zap.String("fingerprint", fp),
	)
	return nil
}

func (s *Service) countAttempt() int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.attempts++
	return s.attempts
}

func (s *Service) countCacheHit() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.cacheHits++
}

func (s *Service) recordPerformance(d time.Duration, confidence float64) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.computed++
	s.confSum += confidence
	s.latency += d
	if confidence > 0.5 {
		s.succeeded++
	}
}

func (s *Service) maybePersist(attempt int) {
	if s.opts.PersistEvery > 0 && attempt%s.opts.PersistEvery == 0 {
		s.cache.PersistAsync()
	}
}

// Report returns the linker counters and cache sizes.
func (s *Service) Report() Report {
	cs := s.cache.Stats()

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	r := Report{
		Attempts:        s.attempts,
		CacheHits:       s.cacheHits,
		CacheSize:       cs.Durable,
		LearnedPatterns: cs.Patterns,
	}
	if s.attempts > 0 {
		r.CacheHitRate = float64(s.cacheHits) / float64(s.attempts)
	}
	if s.computed > 0 {
		n := float64(s.computed)
		r.AverageConfidence = s.confSum / n
		r.SuccessRate = float64(s.succeeded) / n
		r.AverageLatencyMs = float64(s.latency.Milliseconds()) / n
	}
	return r
}
