// Package mutator applies the ordered graph transformations that run
// between indexing and retention analysis. Each mutator is idempotent;
// running the sequence twice leaves the graph unchanged.
package mutator

import (
	"fmt"

	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
)

// Mutator is one ordered graph transformation.
type Mutator interface {
	Name() string
	Mutate(g *graph.Graph) error
}

// All returns the mutators in their fixed execution order.
func All(cfg *config.Config) []Mutator {
	return []Mutator{
		&CommentCommands{},
		&Accessibility{},
		&ImplicitMembers{cfg: cfg},
		&ExternalConformance{},
		&OverrideChains{},
		&EntryPoint{cfg: cfg},
	}
}

// Run executes the full sequence, optionally validating the graph after
// each pass.
func Run(g *graph.Graph, cfg *config.Config) error {
	for _, m := range All(cfg) {
		if err := m.Mutate(g); err != nil {
			return fmt.Errorf("mutator %s: %w", m.Name(), err)
		}
		if cfg.DebugValidation {
			if err := graph.Validate(g); err != nil {
				return fmt.Errorf("after mutator %s: %w", m.Name(), err)
			}
		}
	}
	return nil
}
