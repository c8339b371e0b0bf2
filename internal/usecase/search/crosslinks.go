package search

import (
	"strings"

	"github.com/kailas-cloud/linkdex/internal/domain/candidate"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
	"github.com/kailas-cloud/linkdex/internal/usecase/ranking"
)

// crossLinks relates the top items of different collections.
func crossLinks(cr *rules.CrossLinkRules, stop text.Set, results ranking.Results, topN int) []link.CrossLink {
	acts := top(results[collection.Activities], topN)
	zones := top(results[collection.Zones], topN)
	decs := top(results[collection.Decisions], topN)

	var out []link.CrossLink
	for _, a := range acts {
		for _, d := range decs {
			sim := keywordJaccard(a.Item.Preview(), d.Item.Preview(), stop)
			if sim > cr.ActivityDecision.Threshold {
				out = append(out, newCrossLink(a, d, link.ActivityDecision, sim, cr.ActivityDecision.Note))
			}
		}
	}
	out = append(out, markerLinks(acts, zones, cr.ActivityZone.ActivityMarker, cr.ActivityZone.ZoneMarker,
		link.ActivityZone, cr.ActivityZone)...)
	out = append(out, markerLinks(zones, decs, cr.ZoneDecision.ZoneMarker, cr.ZoneDecision.DecisionMarker,
		link.ZoneDecision, cr.ZoneDecision)...)
	return out
}

func markerLinks(from, to []candidate.Candidate, fromMarker, toMarker, kind string, r rules.MarkerLink) []link.CrossLink {
	if fromMarker == "" || toMarker == "" {
		return nil
	}
	var out []link.CrossLink
	for _, f := range from {
		if !strings.Contains(f.Item.Preview(), fromMarker) {
			continue
		}
		for _, t := range to {
			if strings.Contains(t.Item.Preview(), toMarker) {
				out = append(out, newCrossLink(f, t, kind, r.Confidence, r.Note))
			}
		}
	}
	return out
}

func newCrossLink(from, to candidate.Candidate, kind string, conf float64, note string) link.CrossLink {
	return link.CrossLink{
		From:       link.Ref{Collection: from.Item.Collection(), ID: from.ID()},
		To:         link.Ref{Collection: to.Item.Collection(), ID: to.ID()},
		Kind:       kind,
		Confidence: conf,
		Note:       note,
	}
}

func top(cs []candidate.Candidate, n int) []candidate.Candidate {
	if len(cs) > n {
		return cs[:n]
	}
	return cs
}

// keywordJaccard counts keywords of a matching a keyword of b by substring
// either way, over the size of the keyword union.
func keywordJaccard(a, b string, stop text.Set) float64 {
	ka, kb := text.Keywords(a, stop), text.Keywords(b, stop)
	if len(ka) == 0 || len(kb) == 0 {
		return 0
	}
	matched := 0
	for _, x := range ka {
		for _, y := range kb {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				matched++
				break
			}
		}
	}
	union := text.NewSet(ka...)
	for _, y := range kb {
		union[y] = struct{}{}
	}
	return float64(matched) / float64(len(union))
}
