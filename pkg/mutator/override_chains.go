package mutator

import (
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// OverrideChains links each override to the nearest ancestor member with
// the same selector, walking class inheritance through related edges.
type OverrideChains struct{}

// Name identifies the pass.
func (m *OverrideChains) Name() string { return "override-chains" }

// Mutate builds the override links in both directions.
func (m *OverrideChains) Mutate(g *graph.Graph) error {
	for _, d := range g.Declarations() {
		if !d.HasModifier("override") && !d.HasAttribute("override") {
			continue
		}
		owner := d.Parent.NearestDecl()
		if owner == nil || owner.Kind != index.KindClass {
			continue
		}
		base := findOverridden(g, owner, d)
		if base == nil || base == d.Overrides {
			d.Overrides = base
			continue
		}
		d.Overrides = base
		if !containsDecl(base.OverriddenBy, d) {
			base.OverriddenBy = append(base.OverriddenBy, d)
		}
	}
	return nil
}

// findOverridden walks superclasses from nearest outward and returns the
// first member with an identical selector.
func findOverridden(g *graph.Graph, owner, member *graph.Declaration) *graph.Declaration {
	for super := superclass(g, owner); super != nil; super = superclass(g, super) {
		for _, c := range super.Declarations {
			if c.Kind == member.Kind && c.Name == member.Name {
				return c
			}
		}
	}
	return nil
}

// superclass resolves the in-graph superclass of a class declaration.
func superclass(g *graph.Graph, d *graph.Declaration) *graph.Declaration {
	for _, rel := range d.Related {
		target, ok := g.DeclarationByUSR(rel.USR)
		if ok && target.Kind == index.KindClass {
			return target
		}
	}
	return nil
}

func containsDecl(s []*graph.Declaration, d *graph.Declaration) bool {
	for _, x := range s {
		if x == d {
			return true
		}
	}
	return false
}
