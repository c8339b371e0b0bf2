package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

func newTestService(dims int) *Service {
	return New(rules.NewHolder(nil), dims, zap.NewNop())
}

func vec(vals ...float32) []float32 { return vals }

func TestLoad_ValidatesVectors(t *testing.T) {
	s := newTestService(3)

	report := s.Load(collection.Activities, []item.Raw{
		{ID: "ok", Preview: "فندق", Representations: map[string][]float32{
			item.Full:    vec(1, 0, 0),
			item.Summary: vec(1, 0),
		}},
		{ID: "nan", Preview: "مصنع", Representations: map[string][]float32{
			item.Full: vec(float32(math.NaN()), 0, 0),
		}},
		{ID: "inf", Preview: "مخبز", Representations: map[string][]float32{
			item.Full: vec(float32(math.Inf(1)), 0, 0),
		}},
		{ID: "empty", Preview: "ورشة", Representations: map[string][]float32{item.Full: {}}},
		{ID: "ok", Preview: "duplicate", Representations: map[string][]float32{item.Full: vec(0, 1, 0)}},
	})

	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 4, report.Skipped)
	assert.Equal(t, 3, report.Dimensions)

	reps, ok := s.Representations(collection.Activities, "ok")
	require.True(t, ok)
	assert.Contains(t, reps, item.Full)
	assert.NotContains(t, reps, item.Summary, "wrong-length vector must be dropped")
}

func TestLoad_InfersDimensions(t *testing.T) {
	s := newTestService(0)

	report := s.Load(collection.Zones, []item.Raw{
		{ID: "z1", Representations: map[string][]float32{item.Full: vec(1, 2)}},
		{ID: "z2", Representations: map[string][]float32{item.Full: vec(1, 2, 3)}},
	})

	assert.Equal(t, 2, report.Dimensions)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 2, s.Dimensions(collection.Zones))
}

func TestLoad_BlendsEnhanced(t *testing.T) {
	s := newTestService(2)

	s.Load(collection.Activities, []item.Raw{{
		ID: "a1",
		Representations: map[string][]float32{
			item.Full:       vec(1, 0),
			item.Contextual: vec(0, 1),
			item.Enhanced:   vec(9, 9),
		},
	}})

	it, ok := s.Get(collection.Activities, "a1")
	require.True(t, ok)
	enh, ok := it.Representation(item.Enhanced)
	require.True(t, ok)
	assert.InDelta(t, 0.6, enh[0], 1e-6)
	assert.InDelta(t, 0.4, enh[1], 1e-6)
}

func TestLoad_ReplacesAtomically(t *testing.T) {
	s := newTestService(1)
	s.Load(collection.Decisions, []item.Raw{
		{ID: "d1", Representations: map[string][]float32{item.Full: vec(1)}},
		{ID: "d2", Representations: map[string][]float32{item.Full: vec(1)}},
	})
	require.Equal(t, 2, s.Len(collection.Decisions))

	s.Load(collection.Decisions, []item.Raw{
		{ID: "d3", Representations: map[string][]float32{item.Full: vec(1)}},
	})
	assert.Equal(t, 1, s.Len(collection.Decisions))
	_, ok := s.Get(collection.Decisions, "d1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(collection.Activities), "other collections untouched")
}

func TestLoad_DerivesTags(t *testing.T) {
	s := newTestService(1)
	preview := "فندق خمس نجوم في القاهرة - تراخيص سياحية قرار 104"

	s.Load(collection.Activities, []item.Raw{{
		ID:              "activity_001",
		Preview:         preview,
		Representations: map[string][]float32{item.Full: vec(1)},
		Metadata:        map[string]any{"source": "master"},
	}})

	it, ok := s.Get(collection.Activities, "activity_001")
	require.True(t, ok)
	tags := it.Tags()

	assert.Equal(t, "خدمي", tags.Category)
	assert.Subset(t, tags.SemanticTags, []string{"سياحة", "خدمات", "فندقة", "حوافز"})
	assert.Equal(t, []string{"نشاط", "نشاط سياحي"}, tags.EntityTypes)
	assert.Contains(t, tags.KeyEntities, item.KeyEntity{Type: EntityGovernorate, Value: "القاهرة"})
	assert.Contains(t, tags.KeyEntities, item.KeyEntity{Type: EntityImportantNumber, Value: "104"})
	assert.InDelta(t, 0.9, tags.QualityScore, 1e-9)
	assert.InDelta(t, 0.9, tags.Confidence, 1e-9)
	assert.Equal(t, preview, tags.Summary)
}

func TestSummary_LongPreview(t *testing.T) {
	preview := "هذا نص طويل يحتوي على كلمات كثيرة جدا لوصف النشاط الصناعي المطلوب في المنطقة"
	got := summary(preview)
	assert.Equal(t, "طويل يحتوي كلمات كثيرة لوصف النشاط الصناعي...", got)
}

func TestQualityScore(t *testing.T) {
	raw := item.Raw{ID: "x", Preview: "قصير"}
	assert.InDelta(t, 0.5, qualityScore(raw, false), 1e-9)
	assert.InDelta(t, 0.6, qualityScore(raw, true), 1e-9)
	assert.InDelta(t, 0.7, metadataConfidence(raw), 1e-9)
}

func TestIndex(t *testing.T) {
	s := newTestService(1)
	s.Load(collection.Zones, []item.Raw{
		{ID: "z1", Preview: "منطقة العاشر الصناعية", Representations: map[string][]float32{item.Full: vec(1)}},
		{ID: "z2", Preview: "مدينة السادات", Representations: map[string][]float32{item.Full: vec(1)}},
		{ID: "z3", Preview: "المنطقة الصناعية ببدر", Representations: map[string][]float32{item.Full: vec(1)}},
	})

	idx := s.Index(collection.Zones)
	assert.Equal(t, []int{0, 2}, idx.Categories["منطقة صناعية"])
	assert.Equal(t, []int{1}, idx.Categories["مدينة"])
	assert.Equal(t, []int{0}, idx.Entities["area_العاشر"])
	assert.Equal(t, []int{1}, idx.Entities["area_السادات"])
}

func TestEmptyCollection(t *testing.T) {
	s := newTestService(1)

	assert.Nil(t, s.All(collection.Activities))
	assert.Equal(t, 0, s.Len(collection.Activities))
	_, ok := s.Representations(collection.Activities, "x")
	assert.False(t, ok)
	assert.Empty(t, s.Index(collection.Activities).Categories)
	assert.Equal(t, map[collection.Kind]int{
		collection.Activities: 0, collection.Zones: 0, collection.Decisions: 0,
	}, s.Sizes())
}
