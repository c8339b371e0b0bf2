// Package catalog is the in-memory embedding store: validated items of the
// three collections with their representation vectors, derived tags and a
// secondary category/entity index.
package catalog

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
)

// LoadReport summarizes one Load call.
type LoadReport struct {
	Collection collection.Kind `json:"collection"`
	Loaded     int             `json:"loaded"`
	Skipped    int             `json:"skipped"`
	Dimensions int             `json:"dimensions"`
}

type entry struct {
	items []item.Item
	byID  map[string]int
	index Index
	dims  int
}

// Service holds the loaded collections.
type Service struct {
	rules  RulesSource
	dims   int
	logger *zap.Logger

	mu   sync.RWMutex
	cols map[collection.Kind]*entry
}

// New creates an empty catalog. dims > 0 enforces the vector length;
// dims == 0 takes it from the first valid vector of each collection.
func New(rs RulesSource, dims int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rules:  rs,
		dims:   dims,
		logger: logger,
		cols:   make(map[collection.Kind]*entry),
	}
}

// Load validates raws and replaces the collection content atomically.
// Invalid vectors are dropped; items left without vectors are skipped.
func (s *Service) Load(kind collection.Kind, raws []item.Raw) LoadReport {
	catalogRules := &s.rules.Get().Catalog
	report := LoadReport{Collection: kind}

	dims := s.dims
	items := make([]item.Item, 0, len(raws))
	byID := make(map[string]int, len(raws))

	for _, raw := range raws {
		if _, dup := byID[raw.ID]; dup || raw.ID == "" {
			s.logger.Warn("Skipping item with empty or duplicate id",
				zap.String("collection", kind.String()),
				zap.String("id", raw.ID),
			)
			report.Skipped++
			continue
		}

		reps, d := validVectors(raw.Representations, dims)
		if len(reps) == 0 {
			s.logger.Warn("Skipping item without valid vectors",
				zap.String("collection", kind.String()),
				zap.String("id", raw.ID),
			)
			report.Skipped++
			continue
		}
		dims = d
		if dropped := len(raw.Representations) - len(reps); dropped > 0 {
			s.logger.Debug("Dropped invalid representations",
				zap.String("collection", kind.String()),
				zap.String("id", raw.ID),
				zap.Int("dropped", dropped),
			)
		}

		_, hasFull := reps[item.Full]
		if blended := item.Blend(reps); blended != nil {
			reps[item.Enhanced] = blended
		}
		tags := deriveTags(catalogRules, kind, raw, hasFull)

		byID[raw.ID] = len(items)
		items = append(items, item.New(raw.ID, kind, len(items), raw.Preview, reps, raw.Metadata, tags))
	}

	e := &entry{items: items, byID: byID, index: buildIndex(items), dims: dims}

	s.mu.Lock()
	s.cols[kind] = e
	s.mu.Unlock()

	report.Loaded = len(items)
	report.Dimensions = dims
	s.logger.Info("Collection loaded",
		zap.String("collection", kind.String()),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("dimensions", dims),
	)
	return report
}

// validVectors keeps vectors of the expected length with finite components.
// dims == 0 adopts the length of the first acceptable vector (in name order).
func validVectors(in map[string][]float32, dims int) (map[string][]float32, int) {
	names := sortedKeys(in)
	out := make(map[string][]float32, len(in))
	for _, name := range names {
		if name == item.Enhanced {
			continue
		}
		v := in[name]
		if len(v) == 0 || !finite(v) {
			continue
		}
		if dims == 0 {
			dims = len(v)
		}
		if len(v) != dims {
			continue
		}
		out[name] = v
	}
	return out, dims
}

func sortedKeys(m map[string][]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func finite(v []float32) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

func (s *Service) get(kind collection.Kind) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols[kind]
}

// Representations returns the vectors of one item.
func (s *Service) Representations(kind collection.Kind, id string) (map[string][]float32, bool) {
	it, ok := s.Get(kind, id)
	if !ok {
		return nil, false
	}
	return it.Representations(), true
}

// Get returns one item by id.
func (s *Service) Get(kind collection.Kind, id string) (item.Item, bool) {
	e := s.get(kind)
	if e == nil {
		return item.Item{}, false
	}
	pos, ok := e.byID[id]
	if !ok {
		return item.Item{}, false
	}
	return e.items[pos], true
}

// All returns the items of a collection in load order. The slice is shared
// and must not be modified.
func (s *Service) All(kind collection.Kind) []item.Item {
	if e := s.get(kind); e != nil {
		return e.items
	}
	return nil
}

// Len returns the number of loaded items.
func (s *Service) Len(kind collection.Kind) int {
	if e := s.get(kind); e != nil {
		return len(e.items)
	}
	return 0
}

// Index returns the secondary index of a collection.
func (s *Service) Index(kind collection.Kind) Index {
	if e := s.get(kind); e != nil {
		return e.index
	}
	return Index{}
}

// Dimensions returns the vector length of a collection, 0 when empty.
func (s *Service) Dimensions(kind collection.Kind) int {
	if e := s.get(kind); e != nil {
		return e.dims
	}
	return 0
}

// Sizes returns the item count per collection.
func (s *Service) Sizes() map[collection.Kind]int {
	out := make(map[collection.Kind]int, 3)
	for _, k := range collection.All() {
		out[k] = s.Len(k)
	}
	return out
}
