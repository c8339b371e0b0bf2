package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

func TestNotesFor_LicensingWithLink(t *testing.T) {
	rs := rules.Default()
	c := ranked(collection.Activities, "act-1", "فندق خمس نجوم", 0.85)
	c.Link = &link.Result{Record: &link.Record{ID: "rec"}, Confidence: 0.9, Strategy: link.KeywordOverlap}
	a := analysis(query.Simple, query.IntentLicensing)

	notes := notesFor(&rs.Notes, collection.Activities, c, a, 3)

	require.Len(t, notes, 3)
	assert.Contains(t, rs.Notes.Templates[rules.NoteHigh], notes[0], "first note is a high-confidence template")
	assert.Contains(t, rs.Notes.Templates[rules.NoteLicensing], notes[1], "second note is a licensing template")
	assert.Contains(t, notes[2], "90%", "smart link note carries the link confidence")

	again := notesFor(&rs.Notes, collection.Activities, c, a, 3)
	assert.Equal(t, notes, again, "notes are deterministic")
}

func TestNotesFor_Limit(t *testing.T) {
	rs := rules.Default()
	c := ranked(collection.Activities, "act-1", "فندق خمس نجوم", 0.85)
	c.Link = &link.Result{Record: &link.Record{ID: "rec"}, Confidence: 0.9}

	notes := notesFor(&rs.Notes, collection.Activities, c, analysis(query.Simple, query.IntentLicensing), 2)
	assert.Len(t, notes, 2)
}

func TestNotesFor_AreaAndLowScore(t *testing.T) {
	rs := rules.Default()

	zone := ranked(collection.Zones, "z", "منطقة العاشر", 0.5)
	notes := notesFor(&rs.Notes, collection.Zones, zone, analysis(query.Simple, query.IntentGeneral), 3)
	require.Len(t, notes, 2, "low and area notes")
	assert.Contains(t, rs.Notes.Templates[rules.NoteAreaLink], notes[1])

	weak := ranked(collection.Decisions, "d", "قرار", 0.3)
	notes = notesFor(&rs.Notes, collection.Decisions, weak, analysis(query.Simple, query.IntentGeneral), 3)
	require.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestNotesFor_IncentiveOnActivitiesOnly(t *testing.T) {
	rs := rules.Default()
	a := analysis(query.Simple, query.IntentIncentive)

	act := notesFor(&rs.Notes, collection.Activities, ranked(collection.Activities, "a", "مصنع", 0.3), a, 3)
	require.Len(t, act, 1)
	assert.Contains(t, rs.Notes.Templates[rules.NoteDecisionLink], act[0])

	dec := notesFor(&rs.Notes, collection.Decisions, ranked(collection.Decisions, "d", "قرار", 0.3), a, 3)
	assert.Empty(t, dec)
}

func TestSmartMetadata(t *testing.T) {
	rs := rules.Default()
	c := ranked(collection.Activities, "act-1", "فندق خمس نجوم - قرار 104", 0.5)
	a := analysis(query.Simple, query.IntentGeneral)
	a.Keywords = []string{"فندق", "نجوم"}

	m := smartMetadata(rs, c, a)

	assert.InDelta(t, 0.7, m.Relevance, 0.01)
	assert.Equal(t, rs.Notes.ConfidenceLevels.Low, m.ConfidenceLevel)
	assert.Len(t, m.SuggestedActions, 2)
	assert.Len(t, m.QuickFacts, 2)
}

func TestDisplay(t *testing.T) {
	rs := rules.Default()
	long := strings.Repeat("ب", 130)
	c := ranked(collection.Decisions, "d", long, 0.857)

	d := display(rs, c)

	assert.Len(t, []rune(d.Title), 63)
	assert.True(t, strings.HasSuffix(d.Title, "..."))
	assert.Len(t, []rune(d.Preview), 123)
	assert.Equal(t, "85.7%", d.Confidence)
	assert.Equal(t, rs.Catalog.DefaultCategory, d.Category)
	assert.False(t, d.HasDetails, "item without key entities has no details")
}
