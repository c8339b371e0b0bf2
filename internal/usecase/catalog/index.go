package catalog

import "github.com/kailas-cloud/linkdex/internal/domain/item"

// Index is the secondary lookup built at load time. Positions refer to the
// collection's load order. It is read-only once built.
type Index struct {
	Categories map[string][]int
	Entities   map[string][]int
}

// EntityKey is the index key of a key entity.
func EntityKey(e item.KeyEntity) string {
	return e.Type + "_" + e.Value
}

func buildIndex(items []item.Item) Index {
	idx := Index{
		Categories: make(map[string][]int),
		Entities:   make(map[string][]int),
	}
	for pos, it := range items {
		tags := it.Tags()
		if tags.Category != "" {
			idx.Categories[tags.Category] = append(idx.Categories[tags.Category], pos)
		}
		for _, e := range tags.KeyEntities {
			key := EntityKey(e)
			idx.Entities[key] = append(idx.Entities[key], pos)
		}
	}
	return idx
}
