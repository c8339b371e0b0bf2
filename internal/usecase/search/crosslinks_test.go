package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
	"github.com/kailas-cloud/linkdex/internal/usecase/ranking"
)

func TestCrossLinks_Markers(t *testing.T) {
	rs := rules.Default()
	results := ranking.Results{
		collection.Activities: {ranked(collection.Activities, "act-1", "فندق سياحي", 0.9)},
		collection.Zones:      {ranked(collection.Zones, "zone-1", "منطقة العاشر الصناعية", 0.8)},
		collection.Decisions:  {ranked(collection.Decisions, "dec-1", "قرار 104 حوافز", 0.7)},
	}

	links := crossLinks(&rs.CrossLinks, nil, results, 5)

	require.Len(t, links, 2)
	az := links[0]
	assert.Equal(t, link.ActivityZone, az.Kind)
	assert.Equal(t, "act-1", az.From.ID)
	assert.Equal(t, "zone-1", az.To.ID)
	assert.InDelta(t, 0.6, az.Confidence, 1e-9)

	zd := links[1]
	assert.Equal(t, link.ZoneDecision, zd.Kind)
	assert.Equal(t, collection.Zones, zd.From.Collection)
	assert.Equal(t, "dec-1", zd.To.ID)
	assert.InDelta(t, 0.7, zd.Confidence, 1e-9)
}

func TestCrossLinks_ActivityDecisionOverlap(t *testing.T) {
	rs := rules.Default()
	results := ranking.Results{
		collection.Activities: {ranked(collection.Activities, "act-1", "مصنع أغذية", 0.9)},
		collection.Decisions:  {ranked(collection.Decisions, "dec-1", "مصنع أغذية صحية", 0.7)},
	}

	links := crossLinks(&rs.CrossLinks, nil, results, 5)

	require.Len(t, links, 1)
	assert.Equal(t, link.ActivityDecision, links[0].Kind)
	assert.InDelta(t, 2.0/3, links[0].Confidence, 1e-9)
}

func TestCrossLinks_StopWordsShrinkOverlap(t *testing.T) {
	rs := rules.Default()
	results := ranking.Results{
		collection.Activities: {ranked(collection.Activities, "act-1", "مصنع أغذية", 0.9)},
		collection.Decisions:  {ranked(collection.Decisions, "dec-1", "مصنع أغذية صحية", 0.7)},
	}

	links := crossLinks(&rs.CrossLinks, text.NewSet("أغذية"), results, 5)

	assert.Empty(t, links, "one shared keyword of two is not above the threshold")
}

func TestCrossLinks_TopN(t *testing.T) {
	rs := rules.Default()
	results := ranking.Results{
		collection.Activities: {
			ranked(collection.Activities, "act-1", "مصنع", 0.9),
			ranked(collection.Activities, "act-2", "فندق", 0.8),
		},
		collection.Zones: {ranked(collection.Zones, "zone-1", "العاشر", 0.8)},
	}

	assert.Empty(t, crossLinks(&rs.CrossLinks, nil, results, 1), "only the first activity may link")
	assert.Len(t, crossLinks(&rs.CrossLinks, nil, results, 2), 1)
}

func TestKeywordJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"مصنع أغذية", "مصنع أغذية صحية", 2.0 / 3},
		{"فندق", "قرار", 0},
		{"", "مصنع", 0},
		{"الصناعية", "صناعية", 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, keywordJaccard(tt.a, tt.b, nil), 1e-9, "keywordJaccard(%q, %q)", tt.a, tt.b)
	}
}
