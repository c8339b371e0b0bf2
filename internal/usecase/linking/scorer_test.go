package linking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

const longPreview = "نشاط تجاري عام لبيع المنتجات الغذائية والمشروبات في المحلات الكبيرة"

func TestSelectStrategy(t *testing.T) {
	r := &rules.Default().Linking

	tests := []struct {
		name         string
		kind         collection.Kind
		preview      string
		conversation []string
		want         link.Strategy
	}{
		{"short activity", collection.Activities, "فندق", nil, link.EnhancedSemantic},
		{"activity with conversation", collection.Activities, longPreview, []string{"سؤال"}, link.ContextualSimilarity},
		{"technical activity", collection.Activities, longPreview + " اشتراطات", nil, link.TechnicalPattern},
		{"plain activity", collection.Activities, longPreview, nil, link.KeywordOverlap},
		{"zone with digits", collection.Zones, "المنطقة 10", nil, link.TechnicalPattern},
		{"zone with decision", collection.Zones, "قرار المنطقة", nil, link.TechnicalPattern},
		{"plain zone", collection.Zones, "منطقة صناعية", nil, link.KeywordOverlap},
		{"decision", collection.Decisions, longPreview, []string{"x"}, link.EnhancedSemantic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectStrategy(r, tt.kind, tt.preview, tt.conversation))
		})
	}
}

func TestKeywordScore_SubstringEitherWay(t *testing.T) {
	assert.InDelta(t, 1.0, keywordScore([]string{"العاشر"}, []string{"بالعاشر"}), 1e-9)
	assert.InDelta(t, 1.0, keywordScore([]string{"بالعاشر"}, []string{"العاشر"}), 1e-9)
	assert.InDelta(t, 0.5, keywordScore([]string{"فندق", "مزرعة"}, []string{"فندق"}), 1e-9)
	assert.Zero(t, keywordScore(nil, []string{"فندق"}))
}

func TestEnhancedScorer_ContextMismatch(t *testing.T) {
	r := &rules.Default().Linking
	in := newInput(r, "فندق سياحي كبير", nil)

	got := enhancedScorer{rules: r}.Score(in, newTarget(link.Record{Text: "مصنع كبير"}, nil))

	assert.InDelta(t, (1.0/3.0+0.2)*0.7, got, 1e-9)
}

func TestContextualScorer_ConversationBoost(t *testing.T) {
	r := &rules.Default().Linking
	rec := link.Record{Text: "مخبز بلدي"}

	without := contextualScorer{}.Score(newInput(r, "مخبز آلي حديث", nil), newTarget(rec, nil))
	with := contextualScorer{}.Score(newInput(r, "مخبز آلي حديث", []string{"سألت عن مخبز بلدي أمس"}), newTarget(rec, nil))

	assert.InDelta(t, 0.5, without, 1e-9)
	assert.InDelta(t, 0.8, with, 1e-9)
}

func TestTechnicalScorer(t *testing.T) {
	r := &rules.Default().Linking
	in := newInput(r, "ترخيص وشهادة جودة", nil)

	got := technicalScorer{}.Score(in, newTarget(link.Record{Text: "شهادة جودة معتمدة"}, nil))
	assert.InDelta(t, 2.0/3.0, got, 1e-9)

	plain := newInput(r, "منطقة العاشر", nil)
	assert.InDelta(t, 1.0, technicalScorer{}.Score(plain, newTarget(link.Record{Text: "منطقة العاشر الصناعية"}, nil)), 1e-9)
}
