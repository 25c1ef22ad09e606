// Package retention computes which declarations are reachable from the
// configured roots and reports the remainder.
package retention

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vestige-dev/vestige/pkg/index"
)

// Reason classifies a reported declaration.
type Reason string

const (
	// ReasonUnused marks a declaration never reached from a root.
	ReasonUnused Reason = "unused"
	// ReasonAssignOnly marks a stored property that is written but never
	// read.
	ReasonAssignOnly Reason = "assignOnly"
	// ReasonUnusedParameter marks a parameter of a live function that
	// nothing uses.
	ReasonUnusedParameter Reason = "unusedParameter"
)

// Item is one reported declaration.
type Item struct {
	Location index.Location `json:"location" toon:"location"`
	Kind     index.Kind     `json:"kind" toon:"kind"`
	Name     string         `json:"name" toon:"name"`
	Reason   Reason         `json:"reason" toon:"reason"`
}

// Summary aggregates the run.
type Summary struct {
	Declarations     int            `json:"declarations" toon:"declarations"`
	Retained         int            `json:"retained" toon:"retained"`
	Ignored          int            `json:"ignored" toon:"ignored"`
	Unreferenced     int            `json:"unreferenced" toon:"unreferenced"`
	AssignOnly       int            `json:"assign_only" toon:"assign_only"`
	UnusedParameters int            `json:"unused_parameters" toon:"unused_parameters"`
	ByKind           map[string]int `json:"by_kind" toon:"-"`

	// Distribution of unreferenced declarations per reported file.
	MeanPerFile float64 `json:"mean_per_file" toon:"mean_per_file"`
	P90PerFile  float64 `json:"p90_per_file" toon:"p90_per_file"`
}

// Result is the structured output of one analysis run. Items are sorted by
// (file, line, column, kind, name); two runs over identical input emit
// identical results.
type Result struct {
	Unreferenced     []Item  `json:"unreferenced" toon:"unreferenced"`
	AssignOnly       []Item  `json:"assign_only" toon:"assign_only"`
	UnusedParameters []Item  `json:"unused_parameters" toon:"unused_parameters"`
	Summary          Summary `json:"summary" toon:"summary"`
}

// sortItems orders a report slice deterministically.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if c := items[i].Location.Compare(items[j].Location); c != 0 {
			return c < 0
		}
		if items[i].Kind != items[j].Kind {
			return items[i].Kind < items[j].Kind
		}
		return items[i].Name < items[j].Name
	})
}

// buildSummary fills counts and the per-file distribution.
func buildSummary(r *Result, declarations, retained, ignored int) {
	s := Summary{
		Declarations:     declarations,
		Retained:         retained,
		Ignored:          ignored,
		Unreferenced:     len(r.Unreferenced),
		AssignOnly:       len(r.AssignOnly),
		UnusedParameters: len(r.UnusedParameters),
		ByKind:           make(map[string]int),
	}

	perFile := make(map[string]float64)
	for _, it := range r.Unreferenced {
		s.ByKind[it.Kind.String()]++
		perFile[it.Location.File]++
	}

	if len(perFile) > 0 {
		counts := make([]float64, 0, len(perFile))
		for _, n := range perFile {
			counts = append(counts, n)
		}
		sort.Float64s(counts)
		s.MeanPerFile = stat.Mean(counts, nil)
		s.P90PerFile = stat.Quantile(0.9, stat.Empirical, counts, nil)
	}

	r.Summary = s
}
