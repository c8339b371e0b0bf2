package collection

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/linkdex/internal/domain"
)

// Kind names one of the three independent item collections.
type Kind string

const (
	// Activities holds licensable business activities.
	Activities Kind = "activities"
	// Zones holds industrial zones and cities.
	Zones Kind = "zones"
	// Decisions holds incentive-decision clauses (decision 104 sectors).
	Decisions Kind = "decisions"
)

// aliases maps dataset names used by the source files onto kinds.
var aliases = map[string]Kind{
	"activities":  Activities,
	"activity":    Activities,
	"zones":       Zones,
	"zone":        Zones,
	"industrial":  Zones,
	"decisions":   Decisions,
	"decision":    Decisions,
	"decision104": Decisions,
}

// All returns every kind in the fixed processing order.
func All() []Kind {
	return []Kind{Activities, Zones, Decisions}
}

// IsValid checks if the kind is one of the supported collections.
func (k Kind) IsValid() bool {
	return k == Activities || k == Zones || k == Decisions
}

// Parse resolves a collection name or one of its dataset aliases.
func Parse(name string) (Kind, error) {
	if k, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownCollection, name)
}

func (k Kind) String() string { return string(k) }
