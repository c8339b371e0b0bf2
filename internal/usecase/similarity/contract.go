package similarity

import (
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/usecase/catalog"
)

// Catalog reads loaded items and their secondary index.
type Catalog interface {
	All(kind collection.Kind) []item.Item
	Index(kind collection.Kind) catalog.Index
}
