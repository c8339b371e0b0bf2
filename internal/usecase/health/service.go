package health

import (
	"context"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Searches still answer from the
	// in-memory catalog, possibly without vectors or persistence.
	Degraded Status = "degraded"
	// Unhealthy indicates that no collection is loaded.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status      Status                  `json:"status"`
	Checks      map[string]CheckResult  `json:"checks"`
	Collections map[collection.Kind]int `json:"collections,omitempty"`
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	catalog   CatalogSizer
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker, catalog CatalogSizer) *Service {
	return &Service{db: db, embedding: embedding, catalog: catalog}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	checks["database"] = result(s.db.Ping(ctx))
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	sizes := s.catalog.Sizes()
	loaded := 0
	for _, n := range sizes {
		loaded += n
	}
	checks["catalog"] = CheckOK
	if loaded == 0 {
		checks["catalog"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if loaded == 0 {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Collections: sizes}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
