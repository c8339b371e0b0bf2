package search

import (
	"github.com/kailas-cloud/linkdex/internal/domain/query"
	"github.com/kailas-cloud/linkdex/internal/usecase/ranking"
)

// smartThreshold adapts the result cut-off to the query and to the score
// distribution of the ranked results.
func smartThreshold(a query.Analysis, results ranking.Results, minConf, maxThreshold float64) float64 {
	t := baseThreshold(a.Complexity)

	switch a.Intent.Primary {
	case query.IntentLicensing, query.IntentZone:
		t *= 0.9
	case query.IntentDefinition, query.IntentYesNo:
		t *= 1.1
	}

	sum, n := 0.0, 0
	for _, cs := range results {
		for _, c := range cs {
			if s := c.Final(); s > 0 {
				sum += s
				n++
			}
		}
	}
	if n > 0 {
		switch avg := sum / float64(n); {
		case avg > 0.6:
			t *= 0.85
		case avg < 0.3:
			t *= 1.15
		}
	}
	return max(minConf, min(maxThreshold, t))
}

func baseThreshold(c query.Complexity) float64 {
	switch c {
	case query.VerySimple:
		return 0.5
	case query.Simple:
		return 0.4
	case query.Medium:
		return 0.35
	case query.Complex:
		return 0.25
	case query.Ambiguous:
		return 0.2
	}
	return 0.3
}

// filter drops candidates scoring below threshold. Order is preserved.
func filter(results ranking.Results, threshold float64) {
	for kind, cs := range results {
		kept := cs[:0]
		for _, c := range cs {
			if c.Final() >= threshold {
				kept = append(kept, c)
			}
		}
		results[kind] = kept
	}
}
