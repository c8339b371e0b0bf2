package item

import (
	"sort"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
)

// Raw is a source record before validation.
type Raw struct {
	ID              string
	Preview         string
	Representations map[string][]float32
	Metadata        map[string]any
}

// KeyEntity is a gazetteer hit found in an item preview.
type KeyEntity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Tags are derived at load time from the preview and metadata.
type Tags struct {
	Category     string      `json:"category"`
	SemanticTags []string    `json:"semantic_tags,omitempty"`
	EntityTypes  []string    `json:"entity_types,omitempty"`
	KeyEntities  []KeyEntity `json:"key_entities,omitempty"`
	QualityScore float64     `json:"quality_score"`
	Confidence   float64     `json:"confidence_score"`
	Summary      string      `json:"semantic_summary"`
}

// Item is one loaded record of a collection (immutable value object).
type Item struct {
	id         string
	collection collection.Kind
	index      int
	preview    string
	reps       map[string][]float32
	names      []string
	metadata   map[string]any
	tags       Tags
}

// New creates an Item. index is the load position inside its collection.
func New(
	id string, kind collection.Kind, index int, preview string,
	reps map[string][]float32, metadata map[string]any, tags Tags,
) Item {
	names := make([]string, 0, len(reps))
	for name := range reps {
		names = append(names, name)
	}
	sort.Strings(names)
	return Item{
		id:         id,
		collection: kind,
		index:      index,
		preview:    preview,
		reps:       reps,
		names:      names,
		metadata:   metadata,
		tags:       tags,
	}
}

func (i Item) ID() string                    { return i.id }
func (i Item) Collection() collection.Kind   { return i.collection }
func (i Item) Index() int                    { return i.index }
func (i Item) Preview() string               { return i.preview }
func (i Item) Metadata() map[string]any      { return i.metadata }
func (i Item) Tags() Tags                    { return i.tags }
func (i Item) RepresentationNames() []string { return i.names }

// Representation returns the named vector.
func (i Item) Representation(name string) ([]float32, bool) {
	v, ok := i.reps[name]
	return v, ok
}

// Representations returns a copy of the name→vector mapping. Vectors are shared.
func (i Item) Representations() map[string][]float32 {
	out := make(map[string][]float32, len(i.reps))
	for k, v := range i.reps {
		out[k] = v
	}
	return out
}
