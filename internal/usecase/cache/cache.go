// Package cache is the tiered result cache shared by the search orchestrator
// and the linking engine. A session tier holds every write for a short TTL, a
// bounded durable tier keeps confident results, and a pattern tier counts
// successful strategies per fingerprint until it is reset.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/metrics"
)

// Tier names a cache tier.
type Tier string

// Cache tiers.
const (
	TierSession Tier = "session"
	TierDurable Tier = "durable"
	TierPattern Tier = "pattern"
)

// Entry is one cached payload.
type Entry[T any] struct {
	Key        string    `json:"key"`
	Payload    T         `json:"payload"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
	Tier       Tier      `json:"tier"`
}

// Pattern counts the successes of a strategy for one fingerprint.
type Pattern struct {
	Strategy     string    `json:"strategy"`
	SuccessCount int       `json:"success_count"`
	LastSuccess  time.Time `json:"last_success"`
}

// Options configure a Cache.
type Options struct {
	// Name labels metrics and the persisted snapshot.
	Name             string
	SessionTTL       time.Duration
	DurableMaxAge    time.Duration
	DurableThreshold float64
	Capacity         int
	EvictFraction    float64
	// PersistEvery triggers a background persist after that many writes; 0 disables it.
	PersistEvery   int
	PersistTimeout time.Duration
}

// DefaultOptions returns the 5 minute session tier, a 100 entry durable tier
// admitted above 0.7 and a persist every 10 writes.
func DefaultOptions(name string) Options {
	return Options{
		Name:             name,
		SessionTTL:       5 * time.Minute,
		DurableMaxAge:    24 * time.Hour,
		DurableThreshold: 0.7,
		Capacity:         100,
		EvictFraction:    0.1,
		PersistEvery:     10,
		PersistTimeout:   5 * time.Second,
	}
}

// Stats reports tier sizes and lookup counters.
type Stats struct {
	Session  int     `json:"session"`
	Durable  int     `json:"durable"`
	Patterns int     `json:"patterns"`
	Hits     int     `json:"hits"`
	Misses   int     `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

type state[T any] struct {
	Durable  []Entry[T]         `json:"durable"`
	Patterns map[string]Pattern `json:"patterns"`
}

// Cache is a mutex-guarded tiered cache.
type Cache[T any] struct {
	opts   Options
	snap   Snapshotter
	pool   Submitter
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	session  map[string]Entry[T]
	durable  map[string]Entry[T]
	patterns map[string]Pattern
	writes   int
	hits     int
	misses   int
}

// New creates an empty cache. snap and pool may be nil: without snap nothing
// is persisted, without pool persistence runs on the calling goroutine.
func New[T any](opts Options, snap Snapshotter, pool Submitter, logger *zap.Logger) *Cache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[T]{
		opts:     opts,
		snap:     snap,
		pool:     pool,
		logger:   logger,
		now:      time.Now,
		session:  make(map[string]Entry[T]),
		durable:  make(map[string]Entry[T]),
		patterns: make(map[string]Pattern),
	}
}

// Get looks key up in the session tier, then the durable tier. Expired
// entries are removed and reported as misses.
func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()

	if e, ok := c.session[key]; ok {
		if now.Sub(e.CreatedAt) < c.opts.SessionTTL {
			c.hit(TierSession)
			return e, true
		}
		delete(c.session, key)
	}
	if e, ok := c.durable[key]; ok {
		if c.opts.DurableMaxAge <= 0 || now.Sub(e.CreatedAt) < c.opts.DurableMaxAge {
			c.hit(TierDurable)
			return e, true
		}
		delete(c.durable, key)
	}
	c.misses++
	metrics.CacheLookupsTotal.WithLabelValues(c.opts.Name, "all", "miss").Inc()
	return Entry[T]{}, false
}

func (c *Cache[T]) hit(t Tier) {
	c.hits++
	metrics.CacheLookupsTotal.WithLabelValues(c.opts.Name, string(t), "hit").Inc()
}

// Put writes the session tier and, when confidence is above the durable
// threshold, the durable tier.
func (c *Cache[T]) Put(key string, payload T, confidence float64) {
	c.mu.Lock()
	now := c.now()
	c.session[key] = Entry[T]{
		Key: key, Payload: payload, Confidence: confidence, CreatedAt: now, Tier: TierSession,
	}
	if confidence > c.opts.DurableThreshold {
		c.durable[key] = Entry[T]{
			Key: key, Payload: payload, Confidence: confidence, CreatedAt: now, Tier: TierDurable,
		}
		c.evictLocked()
	}
	c.writes++
	if c.writes%max(c.opts.Capacity, 1) == 0 {
		c.sweepSessionLocked(now)
	}
	persist := c.opts.PersistEvery > 0 && c.writes%c.opts.PersistEvery == 0
	c.mu.Unlock()

	if persist {
		c.PersistAsync()
	}
}

// sweepSessionLocked drops expired session entries that were never read again.
func (c *Cache[T]) sweepSessionLocked(now time.Time) {
	for k, e := range c.session {
		if now.Sub(e.CreatedAt) >= c.opts.SessionTTL {
			delete(c.session, k)
		}
	}
}

// evictLocked drops the oldest fraction of the durable tier once it is over capacity.
func (c *Cache[T]) evictLocked() {
	if c.opts.Capacity <= 0 || len(c.durable) <= c.opts.Capacity {
		return
	}
	n := max(1, int(float64(c.opts.Capacity)*c.opts.EvictFraction))
	n = max(n, len(c.durable)-c.opts.Capacity)

	entries := make([]Entry[T], 0, len(c.durable))
	for _, e := range c.durable {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	for _, e := range entries[:min(n, len(entries))] {
		delete(c.durable, e.Key)
	}
}

// RecordPattern counts one success of strategy for fingerprint.
func (c *Cache[T]) RecordPattern(fingerprint, strategy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.patterns[fingerprint]
	p.Strategy = strategy
	p.SuccessCount++
	p.LastSuccess = c.now()
	c.patterns[fingerprint] = p
}

// Pattern returns the pattern recorded for fingerprint.
func (c *Cache[T]) Pattern(fingerprint string) (Pattern, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.patterns[fingerprint]
	if ok {
		metrics.CacheLookupsTotal.WithLabelValues(c.opts.Name, string(TierPattern), "hit").Inc()
	}
	return p, ok
}

// Persist saves the durable and pattern tiers.
func (c *Cache[T]) Persist(ctx context.Context) error {
	if c.snap == nil {
		return nil
	}
	c.mu.Lock()
	st := state[T]{
		Durable:  make([]Entry[T], 0, len(c.durable)),
		Patterns: make(map[string]Pattern, len(c.patterns)),
	}
	for _, e := range c.durable {
		st.Durable = append(st.Durable, e)
	}
	for k, p := range c.patterns {
		st.Patterns[k] = p
	}
	c.mu.Unlock()

	sort.Slice(st.Durable, func(i, j int) bool { return st.Durable[i].Key < st.Durable[j].Key })
	if err := c.snap.Save(ctx, c.opts.Name, st); err != nil {
		return fmt.Errorf("persist %s cache: %w", c.opts.Name, err)
	}
	return nil
}

// PersistAsync runs Persist on the worker pool. Failures are logged and counted.
func (c *Cache[T]) PersistAsync() {
	if c.snap == nil {
		return
	}
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout())
		defer cancel()
		if err := c.Persist(ctx); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues(c.opts.Name).Inc()
			c.logger.Warn("Cache persist failed", zap.String("cache", c.opts.Name), zap.Error(err))
		}
	}
	if c.pool == nil {
		task()
		return
	}
	if err := c.pool.Submit(task); err != nil {
		metrics.PersistFailuresTotal.WithLabelValues(c.opts.Name).Inc()
		c.logger.Warn("Cache persist not scheduled", zap.String("cache", c.opts.Name), zap.Error(err))
	}
}

func (c *Cache[T]) persistTimeout() time.Duration {
	if c.opts.PersistTimeout > 0 {
		return c.opts.PersistTimeout
	}
	return 5 * time.Second
}

// Restore loads the persisted durable and pattern tiers. Entries past the
// durable max age are dropped. A missing snapshot is not an error.
func (c *Cache[T]) Restore(ctx context.Context) error {
	if c.snap == nil {
		return nil
	}
	var st state[T]
	ok, err := c.snap.Load(ctx, c.opts.Name, &st)
	if err != nil {
		return fmt.Errorf("restore %s cache: %w", c.opts.Name, err)
	}
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for _, e := range st.Durable {
		if c.opts.DurableMaxAge > 0 && now.Sub(e.CreatedAt) >= c.opts.DurableMaxAge {
			continue
		}
		e.Tier = TierDurable
		c.durable[e.Key] = e
	}
	c.evictLocked()
	for k, p := range st.Patterns {
		c.patterns[k] = p
	}
	c.logger.Info("Cache restored",
		zap.String("cache", c.opts.Name),
		zap.Int("durable", len(c.durable)),
		zap.Int("patterns", len(c.patterns)),
	)
	return nil
}

// Clear empties the session and durable tiers. Patterns are kept.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = make(map[string]Entry[T])
	c.durable = make(map[string]Entry[T])
}

// Reset empties every tier and removes the persisted snapshot.
func (c *Cache[T]) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.session = make(map[string]Entry[T])
	c.durable = make(map[string]Entry[T])
	c.patterns = make(map[string]Pattern)
	c.writes, c.hits, c.misses = 0, 0, 0
	c.mu.Unlock()

	if c.snap == nil {
		return nil
	}
	if err := c.snap.Delete(ctx, c.opts.Name); err != nil {
		return fmt.Errorf("reset %s cache: %w", c.opts.Name, err)
	}
	return nil
}

// Stats returns tier sizes and the hit rate.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Session:  len(c.session),
		Durable:  len(c.durable),
		Patterns: len(c.patterns),
		Hits:     c.hits,
		Misses:   c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
