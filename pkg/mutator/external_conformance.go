package mutator

import (
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// ExternalConformance handles conformances to protocols declared outside
// the analyzed modules. Their requirements cannot be enumerated, so every
// member that could fill a witness slot is assumed required and retained.
type ExternalConformance struct{}

// Name identifies the pass.
func (m *ExternalConformance) Name() string { return "external-conformance" }

// Mutate marks witnesses of external protocols.
func (m *ExternalConformance) Mutate(g *graph.Graph) error {
	for _, d := range g.Declarations() {
		if !conformsExternally(g, d) {
			continue
		}
		for _, member := range d.Declarations {
			if !isWitnessSlot(member) {
				continue
			}
			member.IsExternalWitness = true
			g.MarkRetained(member)
		}
	}
	return nil
}

// conformsExternally reports a related protocol edge with no in-graph
// declaration. Derived-conformance protocol names resolve through
// ImplicitMembers instead and stay out of this rule only when in-graph.
func conformsExternally(g *graph.Graph, d *graph.Declaration) bool {
	switch d.Kind {
	case index.KindClass, index.KindStruct, index.KindEnum:
	default:
		if !d.Kind.IsExtension() {
			return false
		}
	}
	for _, rel := range d.Related {
		if _, ok := g.DeclarationByUSR(rel.USR); ok {
			continue
		}
		if rel.Kind == index.KindProtocol {
			return true
		}
	}
	return false
}

// isWitnessSlot reports whether a member could satisfy a protocol
// requirement: named functions, variables, subscripts, typealiases and
// associated types.
func isWitnessSlot(member *graph.Declaration) bool {
	if member.Name == "" {
		return false
	}
	switch {
	case member.Kind.IsFunction() && !member.Kind.IsAccessor():
		return true
	case member.Kind.IsVariable() && member.Kind != index.KindVarParameter && member.Kind != index.KindVarLocal:
		return true
	case member.Kind == index.KindTypealias || member.Kind == index.KindAssociatedType:
		return true
	}
	return false
}
