package search

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

const (
	titleRunes   = 60
	previewRunes = 120
	maxActions   = 3
	maxFacts     = 3
)

// template picks a note of group. The choice depends on the item id only.
func template(nr *rules.NoteRules, group, id string) string {
	tpl := nr.Templates[group]
	if len(tpl) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return tpl[h.Sum32()%uint32(len(tpl))]
}

func notesFor(nr *rules.NoteRules, kind collection.Kind, c candidate.Candidate, a query.Analysis, limit int) []string {
	var groups []string
	switch score := c.Final(); {
	case score >= 0.8:
		groups = append(groups, rules.NoteHigh)
	case score >= 0.6:
		groups = append(groups, rules.NoteMedium)
	case score >= 0.4:
		groups = append(groups, rules.NoteLow)
	}
	if a.Intent.Primary == query.IntentIncentive && kind == collection.Activities {
		groups = append(groups, rules.NoteDecisionLink)
	}
	if a.Intent.Primary == query.IntentLicensing {
		groups = append(groups, rules.NoteLicensing)
	}
	if a.Intent.Secondary == query.SecondaryRequirements {
		groups = append(groups, rules.NoteTechnical)
	}
	if text.ContainsAny(c.Item.Preview(), nr.AreaMarkers...) {
		groups = append(groups, rules.NoteAreaLink)
	}

	notes := make([]string, 0, len(groups)+1)
	for _, g := range groups {
		if n := template(nr, g, c.ID()); n != "" {
			notes = append(notes, n)
		}
	}
	if c.Link != nil && c.Link.Resolved() && nr.SmartLink != "" {
		notes = append(notes, fmt.Sprintf(nr.SmartLink, int(math.Round(c.Link.Confidence*100))))
	}
	if len(notes) > limit {
		notes = notes[:limit]
	}
	return notes
}

func confidenceLevel(l rules.ConfidenceLevels, score float64) string {
	switch {
	case score >= 0.8:
		return l.High
	case score >= 0.6:
		return l.Medium
	case score >= 0.4:
		return l.Low
	}
	return l.Weak
}

func smartMetadata(rs *rules.Set, c candidate.Candidate, a query.Analysis) result.SmartMetadata {
	preview := c.Item.Preview()
	folded := text.Fold(preview)

	relevance := c.Final()
	if rs.Analyzer.MatchesIntent(folded, a.Intent.Primary) {
		relevance *= 1.2
	}
	for _, kw := range a.Keywords {
		if kw != "" && text.ContainsAny(folded, kw) {
			relevance += 0.1
		}
	}

	var actions, facts []string
	for _, r := range rs.Notes.Actions {
		if len(actions) < maxActions && text.ContainsAny(preview, r.Marker) {
			actions = append(actions, r.Actions...)
		}
	}
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	for _, r := range rs.Notes.Facts {
		if len(facts) < maxFacts && text.ContainsAny(preview, r.Marker) {
			facts = append(facts, r.Fact)
		}
	}

	return result.SmartMetadata{
		Relevance:        min(1, relevance),
		ConfidenceLevel:  confidenceLevel(rs.Notes.ConfidenceLevels, c.Final()),
		SuggestedActions: actions,
		QuickFacts:       facts,
	}
}

func display(rs *rules.Set, c candidate.Candidate) result.Display {
	preview := c.Item.Preview()
	tags := c.Item.Tags()
	category := tags.Category
	if category == "" {
		category = rs.Catalog.DefaultCategory
	}
	return result.Display{
		Title:      truncate(preview, titleRunes),
		Preview:    truncate(preview, previewRunes),
		Confidence: fmt.Sprintf("%.1f%%", c.Final()*100),
		Category:   category,
		HasDetails: len(tags.KeyEntities) > 0,
	}
}

func truncate(s string, n int) string {
	if text.RuneLen(s) <= n {
		return s
	}
	return text.Prefix(s, n) + "..."
}
