package result

import (
	"testing"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
)

func TestEmpty(t *testing.T) {
	r := Empty(Analysis{Query: "x"})

	for _, kind := range collection.All() {
		hits := r.Hits(kind)
		if hits == nil || len(hits) != 0 {
			t.Errorf("%s: expected empty non-nil slice, got %#v", kind, hits)
		}
	}
	if r.Links == nil {
		t.Error("Links must be non-nil")
	}
	if r.Total() != 0 || r.BestScore() != 0 {
		t.Errorf("Total()=%d BestScore()=%f", r.Total(), r.BestScore())
	}
}

func TestSetHits(t *testing.T) {
	r := Empty(Analysis{})
	r.SetHits(collection.Zones, []Hit{{ID: "z1", Score: 0.4}, {ID: "z2", Score: 0.9}})
	r.SetHits(collection.Decisions, nil)
	r.SetHits(collection.Kind("bogus"), []Hit{{ID: "x"}})

	if r.Total() != 2 {
		t.Errorf("Total() = %d, want 2", r.Total())
	}
	if r.BestScore() != 0.9 {
		t.Errorf("BestScore() = %f, want 0.9", r.BestScore())
	}
	if r.Decisions == nil {
		t.Error("SetHits(nil) must keep a non-nil slice")
	}
}
