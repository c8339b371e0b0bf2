// Package similarity generates first-stage candidates for one collection:
// a quick keyword pass over the category/entity index and a weighted cosine
// scan over the item representations, merged and boosted by query entities.
package similarity

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
)

// Index pass weights.
const (
	categoryHit = 0.3
	entityHit   = 0.4
)

// Entity boost weights.
const (
	entityTextFactor = 0.1
	kindMatchBoost   = 0.05
)

// DefaultScanCap bounds the vector pass when no cap is configured.
const DefaultScanCap = 5000

// Service searches one collection at a time. It is safe for concurrent use.
type Service struct {
	catalog Catalog
	scanCap int
	weights map[string]float64
}

// New creates a similarity search over c. scanCap <= 0 uses DefaultScanCap.
func New(c Catalog, scanCap int) *Service {
	if scanCap <= 0 {
		scanCap = DefaultScanCap
	}
	return &Service{catalog: c, scanCap: scanCap, weights: item.DefaultWeights()}
}

// Search returns up to limit candidates of kind ordered by descending score.
// Ties keep the collection load order. A nil vector yields index hits only.
func (s *Service) Search(
	kind collection.Kind, vector []float32, a query.Analysis, limit int,
) []candidate.Candidate {
	items := s.catalog.All(kind)
	if len(items) == 0 || limit <= 0 {
		return nil
	}

	byPos := s.indexPass(kind, items, a.Keywords)
	indexHits := len(byPos)

	if len(vector) > 0 {
		scanN := min(len(items), s.scanCap)
		if indexHits > 0 {
			scanN = min(scanN, 3*max(limit-indexHits, 0))
		}
		for pos := 0; pos < scanN; pos++ {
			score, rep := s.bestCosine(items[pos], vector)
			if score <= 0 {
				continue
			}
			c, ok := byPos[pos]
			switch {
			case !ok:
				byPos[pos] = &candidate.Candidate{
					Item: items[pos], RawScore: score, Representation: rep,
					Method: candidate.MethodVector,
				}
			case score > c.RawScore:
				c.RawScore = score
				c.Representation = rep
				c.Method = candidate.MethodVector
			}
		}
	}

	positions := make([]int, 0, len(byPos))
	for pos := range byPos {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	out := make([]candidate.Candidate, 0, len(positions))
	for _, pos := range positions {
		c := byPos[pos]
		c.EntityBoost = entityBoost(kind, c.Item, a.Entities)
		c.Score = min(1, c.RawScore+c.EntityBoost)
		c.Stage = candidate.StageFast
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// indexPass scores items whose category or entity keys contain a query keyword.
func (s *Service) indexPass(kind collection.Kind, items []item.Item, keywords []string) map[int]*candidate.Candidate {
	hits := make(map[int]*candidate.Candidate)
	if len(keywords) == 0 {
		return hits
	}
	idx := s.catalog.Index(kind)
	scores := make(map[int]float64)
	add := func(keys map[string][]int, weight float64) {
		for _, key := range sortedKeys(keys) {
			for _, kw := range keywords {
				if !strings.Contains(key, kw) {
					continue
				}
				for _, pos := range keys[key] {
					scores[pos] += weight
				}
			}
		}
	}
	add(idx.Categories, categoryHit)
	add(idx.Entities, entityHit)

	for pos, score := range scores {
		if pos < 0 || pos >= len(items) {
			continue
		}
		hits[pos] = &candidate.Candidate{
			Item:     items[pos],
			RawScore: min(1, score),
			Method:   candidate.MethodQuickIndex,
			IndexHit: true,
		}
	}
	return hits
}

// bestCosine is the maximum weighted cosine over the item representations, capped at 1.
func (s *Service) bestCosine(it item.Item, vector []float32) (float64, string) {
	best, rep := 0.0, ""
	for _, name := range it.RepresentationNames() {
		v, _ := it.Representation(name)
		w, ok := s.weights[name]
		if !ok {
			w = item.UnknownWeight
		}
		if score := Cosine(vector, v) * w; score > best {
			best, rep = score, name
		}
	}
	return min(1, best), rep
}

func entityBoost(kind collection.Kind, it item.Item, entities []query.Entity) float64 {
	if len(entities) == 0 {
		return 0
	}
	preview := text.Fold(it.Preview())
	boost := 0.0
	for _, e := range entities {
		if e.Text != "" && strings.Contains(preview, text.Fold(e.Text)) {
			boost += e.Weight * entityTextFactor
		}
		if matchesKind(kind, e.Type) {
			boost += kindMatchBoost
		}
	}
	return boost
}

func matchesKind(kind collection.Kind, t query.EntityType) bool {
	switch kind {
	case collection.Activities:
		return t == query.EntityActivity
	case collection.Zones:
		return t == query.EntityIndustrialArea
	case collection.Decisions:
		return t == query.EntityDecision
	}
	return false
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
