package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/metrics"
)

const (
	sessionPrefix  = "session:"
	maxSessions    = 1024
	sessionTimeout = 5 * time.Second
)

// Turn is one query of a conversation.
type Turn struct {
	Query  string    `json:"query"`
	Intent string    `json:"intent"`
	At     time.Time `json:"at"`
}

// sessions keeps per-session conversation history, capped at limit turns.
type sessions struct {
	snap   Snapshotter
	pool   Submitter
	limit  int
	window int
	logger *zap.Logger

	mu    sync.Mutex
	turns map[string][]Turn
	seq   uint64

	// saveMu orders background saves; a save older than the last one
	// written for its session is dropped.
	saveMu sync.Mutex
	saved  map[string]uint64
}

func newSessions(snap Snapshotter, pool Submitter, limit, window int, logger *zap.Logger) *sessions {
	return &sessions{
		snap:   snap,
		pool:   pool,
		limit:  limit,
		window: window,
		logger: logger,
		turns:  make(map[string][]Turn),
		saved:  make(map[string]uint64),
	}
}

// history returns the queries of the last window turns, oldest first.
// A session unknown in memory is restored from the snapshot store.
func (s *sessions) history(ctx context.Context, id string) []string {
	s.mu.Lock()
	turns, ok := s.turns[id]
	s.mu.Unlock()

	if !ok && s.snap != nil {
		var stored []Turn
		found, err := s.snap.Load(ctx, sessionPrefix+id, &stored)
		if err != nil {
			s.logger.Warn("Failed to load session", zap.String("session_id", id), zap.Error(err))
		}
		if found {
			s.mu.Lock()
			if _, ok := s.turns[id]; !ok {
				s.turns[id] = stored
			}
			turns = s.turns[id]
			s.mu.Unlock()
		}
	}

	start := max(0, len(turns)-s.window)
	out := make([]string, 0, len(turns)-start)
	for _, t := range turns[start:] {
		out = append(out, t.Query)
	}
	return out
}

// append records t and saves the session in the background.
func (s *sessions) append(id string, t Turn) {
	s.mu.Lock()
	turns := append(s.turns[id], t)
	if len(turns) > s.limit {
		turns = append([]Turn(nil), turns[len(turns)-s.limit:]...)
	}
	s.turns[id] = turns
	evicted := ""
	if len(s.turns) > maxSessions {
		evicted = s.evictOldestLocked()
	}
	s.seq++
	seq := s.seq
	pending := append([]Turn(nil), turns...)
	s.mu.Unlock()

	if evicted != "" {
		s.saveMu.Lock()
		delete(s.saved, evicted)
		s.saveMu.Unlock()
	}
	if s.snap == nil {
		return
	}
	task := func() { s.save(id, seq, pending) }
	if s.pool == nil || s.pool.Submit(task) != nil {
		task()
	}
}

func (s *sessions) save(id string, seq uint64, turns []Turn) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.saved[id] {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()
	if err := s.snap.Save(ctx, sessionPrefix+id, turns); err != nil {
		metrics.PersistFailuresTotal.WithLabelValues("session").Inc()
		s.logger.Warn("Failed to save session", zap.String("session_id", id), zap.Error(err))
		return
	}
	s.saved[id] = seq
}

func (s *sessions) evictOldestLocked() string {
	var oldestID string
	var oldest time.Time
	for id, turns := range s.turns {
		if len(turns) == 0 {
			oldestID = id
			break
		}
		if at := turns[len(turns)-1].At; oldestID == "" || at.Before(oldest) {
			oldestID, oldest = id, at
		}
	}
	delete(s.turns, oldestID)
	return oldestID
}

func (s *sessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
