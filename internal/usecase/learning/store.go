// Package learning keeps what the engine learns across searches: query
// history, entity keywords harvested from confident results, confidence
// samples and the cross links found per query.
package learning

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

const (
	snapshotName      = "learning"
	maxConfidenceKept = 100
)

// QueryStat tracks how often a normalized query was asked.
type QueryStat struct {
	Count      int       `json:"count"`
	FirstUsed  time.Time `json:"first_used"`
	LastUsed   time.Time `json:"last_used"`
	LastIntent string    `json:"last_intent"`
}

// Stats summarizes the store.
type Stats struct {
	Queries           int     `json:"queries"`
	Patterns          int     `json:"patterns"`
	ConfidenceSamples int     `json:"confidence_samples"`
	AverageConfidence float64 `json:"average_confidence"`
	CrossLinkQueries  int     `json:"cross_link_queries"`
}

type state struct {
	History    map[string]QueryStat            `json:"history"`
	Patterns   map[string]query.LearnedPattern `json:"patterns"`
	Confidence []float64                       `json:"confidence"`
	CrossLinks map[string][]link.CrossLink     `json:"cross_links"`
}

func newState() state {
	return state{
		History:    make(map[string]QueryStat),
		Patterns:   make(map[string]query.LearnedPattern),
		CrossLinks: make(map[string][]link.CrossLink),
	}
}

// Store is the mutex-guarded learning state.
type Store struct {
	rules  RulesSource
	snap   Snapshotter
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
	st state
}

// New creates an empty store. snap may be nil to keep state in memory only.
func New(rs RulesSource, snap Snapshotter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{rules: rs, snap: snap, logger: logger, now: time.Now, st: newState()}
}

func historyKey(raw string) string {
	return strings.TrimSpace(text.Fold(raw))
}

// RecordQuery counts one use of the query.
func (s *Store) RecordQuery(a query.Analysis) {
	key := historyKey(a.Raw)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	h, ok := s.st.History[key]
	if !ok {
		h.FirstUsed = now
	}
	h.Count++
	h.LastUsed = now
	h.LastIntent = a.Intent.Primary
	s.st.History[key] = h
}

// Query returns the history of raw.
func (s *Store) Query(raw string) (QueryStat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.st.History[historyKey(raw)]
	return h, ok
}

// LearnFrom harvests entity keywords from the previews of confident results.
// Each keyword is typed by the markers its preview carries.
func (s *Store) LearnFrom(previews []string) int {
	rs := s.rules.Get()
	types := rs.Analyzer.LearnedTypes
	stop := text.NewSet(rs.Linking.StopWords...)
	s.mu.Lock()
	defer s.mu.Unlock()

	learned := 0
	for _, preview := range previews {
		folded := text.Fold(preview)
		typ := detectType(types, folded)
		for _, kw := range text.Keywords(folded, stop) {
			p, ok := s.st.Patterns[kw]
			if !ok {
				p = query.LearnedPattern{Keyword: kw, Type: typ}
				learned++
			}
			p.Count++
			s.st.Patterns[kw] = p
		}
	}
	return learned
}

func detectType(types []rules.MarkerRule, folded string) query.EntityType {
	for _, t := range types {
		if text.ContainsAny(folded, t.Markers...) {
			return query.EntityType(t.Type)
		}
	}
	return query.EntityGeneral
}

// Patterns returns the learned entity patterns ordered by keyword.
func (s *Store) Patterns() []query.LearnedPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]query.LearnedPattern, 0, len(s.st.Patterns))
	for _, p := range s.st.Patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// RecordConfidence keeps the last hundred average result scores.
func (s *Store) RecordConfidence(score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Confidence = append(s.st.Confidence, score)
	if over := len(s.st.Confidence) - maxConfidenceKept; over > 0 {
		s.st.Confidence = append([]float64(nil), s.st.Confidence[over:]...)
	}
}

// RecordCrossLinks replaces the cross links stored for raw.
func (s *Store) RecordCrossLinks(raw string, links []link.CrossLink) {
	key := historyKey(raw)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(links) == 0 {
		delete(s.st.CrossLinks, key)
		return
	}
	s.st.CrossLinks[key] = append([]link.CrossLink(nil), links...)
}

// CrossLinks returns the cross links stored for raw.
func (s *Store) CrossLinks(raw string) []link.CrossLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]link.CrossLink(nil), s.st.CrossLinks[historyKey(raw)]...)
}

// Stats summarizes the store.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		Queries:           len(s.st.History),
		Patterns:          len(s.st.Patterns),
		ConfidenceSamples: len(s.st.Confidence),
		CrossLinkQueries:  len(s.st.CrossLinks),
	}
	if n := len(s.st.Confidence); n > 0 {
		sum := 0.0
		for _, c := range s.st.Confidence {
			sum += c
		}
		out.AverageConfidence = sum / float64(n)
	}
	return out
}

// Persist saves the learning state.
func (s *Store) Persist(ctx context.Context) error {
	if s.snap == nil {
		return nil
	}
	s.mu.Lock()
	st := s.copyLocked()
	s.mu.Unlock()

	if err := s.snap.Save(ctx, snapshotName, st); err != nil {
		return fmt.Errorf("persist learning: %w", err)
	}
	return nil
}

func (s *Store) copyLocked() state {
	st := newState()
	for k, v := range s.st.History {
		st.History[k] = v
	}
	for k, v := range s.st.Patterns {
		st.Patterns[k] = v
	}
	for k, v := range s.st.CrossLinks {
		st.CrossLinks[k] = append([]link.CrossLink(nil), v...)
	}
	st.Confidence = append([]float64(nil), s.st.Confidence...)
	return st
}

// Restore replaces the state with the persisted one. A missing snapshot
// keeps the current state.
func (s *Store) Restore(ctx context.Context) error {
	if s.snap == nil {
		return nil
	}
	st := newState()
	ok, err := s.snap.Load(ctx, snapshotName, &st)
	if err != nil {
		return fmt.Errorf("restore learning: %w", err)
	}
	if !ok {
		return nil
	}
	if st.History == nil {
		st.History = make(map[string]QueryStat)
	}
	if st.Patterns == nil {
		st.Patterns = make(map[string]query.LearnedPattern)
	}
	if st.CrossLinks == nil {
		st.CrossLinks = make(map[string][]link.CrossLink)
	}
	if over := len(st.Confidence) - maxConfidenceKept; over > 0 {
		st.Confidence = st.Confidence[over:]
	}

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()

	s.logger.Info("Learning state restored",
		zap.Int("queries", len(st.History)),
		zap.Int("patterns", len(st.Patterns)),
	)
	return nil
}

// Reset clears the state and removes the persisted snapshot.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.st = newState()
	s.mu.Unlock()

	if s.snap == nil {
		return nil
	}
	if err := s.snap.Delete(ctx, snapshotName); err != nil {
		return fmt.Errorf("reset learning: %w", err)
	}
	return nil
}
