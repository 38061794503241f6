// Package stats aggregates catalog outcomes.
package stats

import (
	"github.com/mika/cycheck/internal/model"
)

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Stats is a pure aggregation over a catalog. Every count equals what a
// direct scan of the catalog yields; there is no hidden state, and
// Passed+Failed+Pending always equals Total.
type Stats struct {
	Total      int                      `json:"total"`
	Passed     int                      `json:"passed"`
	Failed     int                      `json:"failed"`
	Pending    int                      `json:"pending"`
	ByCategory map[string]CategoryStats `json:"byCategory"`
}

// Compute scans the catalog and returns its aggregate counts.
func Compute(catalog *model.Catalog) Stats {
	s := Stats{ByCategory: make(map[string]CategoryStats)}

	for i := range catalog.Categories {
		cat := &catalog.Categories[i]
		cs := CategoryStats{Total: len(cat.Cases)}
		for j := range cat.Cases {
			switch cat.Cases[j].Status {
			case model.StatusPass:
				cs.Passed++
			case model.StatusFail:
				cs.Failed++
			default:
				cs.Pending++
			}
		}
		s.ByCategory[cat.Name] = cs
		s.Total += cs.Total
		s.Passed += cs.Passed
		s.Failed += cs.Failed
		s.Pending += cs.Pending
	}

	return s
}
