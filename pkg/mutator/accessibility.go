package mutator

import (
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// Accessibility infers the effective access level of extensions and their
// members. An extension without an explicit modifier takes its extended
// type's level; a member's effective level is
// min(extension, explicit-or-public).
type Accessibility struct{}

// Name identifies the pass.
func (m *Accessibility) Name() string { return "accessibility" }

// Mutate propagates accessibility through extensions.
func (m *Accessibility) Mutate(g *graph.Graph) error {
	for _, ext := range g.Declarations() {
		if !ext.Kind.IsExtension() {
			continue
		}

		if !ext.ExplicitAccessibility {
			if extended := extendedType(g, ext); extended != nil {
				ext.Accessibility = extended.Accessibility
			}
		}

		for _, member := range ext.Declarations {
			level := index.AccessPublic
			if member.ExplicitAccessibility {
				level = member.Accessibility
			}
			member.Accessibility = ext.Accessibility.Min(level)
		}
	}
	return nil
}

// extendedType resolves the in-graph declaration an extension extends.
func extendedType(g *graph.Graph, ext *graph.Declaration) *graph.Declaration {
	for _, rel := range ext.Related {
		if d, ok := g.DeclarationByUSR(rel.USR); ok && d.Kind.IsType() {
			return d
		}
	}
	return nil
}
