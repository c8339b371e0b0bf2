package catalog

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/text"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

// Key entity types found in item previews.
const (
	EntityGovernorate     = "governorate"
	EntityArea            = "area"
	EntityImportantNumber = "important_number"
)

var numberRe = regexp.MustCompile(`\d+`)

// deriveTags computes the load-time tags of an item.
func deriveTags(r *rules.CatalogRules, kind collection.Kind, raw item.Raw, hasFull bool) item.Tags {
	preview := raw.Preview
	folded := text.Fold(preview)

	return item.Tags{
		Category:     category(r, kind, folded),
		SemanticTags: semanticTags(r, folded),
		EntityTypes:  entityTypes(r, kind, preview),
		KeyEntities:  keyEntities(r, preview),
		QualityScore: qualityScore(raw, hasFull),
		Confidence:   metadataConfidence(raw),
		Summary:      summary(preview),
	}
}

func qualityScore(raw item.Raw, hasFull bool) float64 {
	score := 0.5
	n := text.RuneLen(raw.Preview)
	if n > 30 {
		score += 0.2
	}
	if n > 50 {
		score += 0.1
	}
	if len(raw.Metadata) > 0 {
		score += 0.1
	}
	if hasFull {
		score += 0.1
	}
	return min(1, score)
}

func metadataConfidence(raw item.Raw) float64 {
	c := 0.5
	if raw.Preview != "" {
		c += 0.2
	}
	if len(raw.Metadata) > 0 {
		c += 0.1
	}
	if text.RuneLen(raw.ID) > 5 {
		c += 0.1
	}
	return min(0.95, c)
}

func semanticTags(r *rules.CatalogRules, folded string) []string {
	var out []string
	seen := text.NewSet()
	for _, rule := range r.SemanticTags {
		if !text.ContainsAny(folded, rule.Markers...) {
			continue
		}
		for _, t := range rule.Tags {
			if !seen.Has(t) {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	return out
}

func entityTypes(r *rules.CatalogRules, kind collection.Kind, preview string) []string {
	rule, ok := r.EntityTypes[kind.String()]
	if !ok {
		return nil
	}
	out := []string{rule.Base}
	for _, v := range rule.Variants {
		if strings.Contains(preview, v.Marker) {
			out = append(out, v.Label)
		}
	}
	return out
}

func category(r *rules.CatalogRules, kind collection.Kind, folded string) string {
	for _, rule := range r.Categories[kind.String()] {
		if text.ContainsAny(folded, rule.Markers...) {
			return rule.Label
		}
	}
	return r.DefaultCategory
}

func keyEntities(r *rules.CatalogRules, preview string) []item.KeyEntity {
	var out []item.KeyEntity
	for _, g := range r.KeyGovernorates {
		if strings.Contains(preview, g) {
			out = append(out, item.KeyEntity{Type: EntityGovernorate, Value: g})
		}
	}
	for _, a := range r.KeyAreas {
		if strings.Contains(preview, a) {
			out = append(out, item.KeyEntity{Type: EntityArea, Value: a})
		}
	}
	important := text.NewSet(r.ImportantNumbers...)
	seen := text.NewSet()
	for _, num := range numberRe.FindAllString(preview, -1) {
		if important.Has(num) && !seen.Has(num) {
			seen[num] = struct{}{}
			out = append(out, item.KeyEntity{Type: EntityImportantNumber, Value: num})
		}
	}
	return out
}

// summary is the preview itself when short, else its first seven words
// longer than three runes.
func summary(preview string) string {
	words := strings.Fields(preview)
	if len(words) <= 10 {
		return preview
	}
	picked := make([]string, 0, 7)
	for _, w := range words {
		if text.RuneLen(w) > 3 {
			picked = append(picked, w)
			if len(picked) == 7 {
				break
			}
		}
	}
	return strings.Join(picked, " ") + "..."
}
