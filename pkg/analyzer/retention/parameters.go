package retention

import (
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// analyzeParameters computes unused parameters of live functions. A
// parameter stands or falls with its position across the whole dispatch
// group: the override chain, the protocol requirement it witnesses, the
// other witnesses of that requirement, and any protocol-extension default.
// Parameters of dead functions are ignored, not reported; the function
// itself is the actionable item.
func (r *run) analyzeParameters() []Item {
	var items []Item
	for _, f := range r.g.Declarations() {
		if !f.Kind.IsFunction() || f.Kind.IsAccessor() || !f.Retained {
			continue
		}
		params := f.Parameters()
		if len(params) == 0 {
			continue
		}

		group := r.dispatchGroup(f)

		if r.allParametersRetained(group) {
			continue
		}

		for pos, p := range params {
			if p.Name == "_" || r.g.IsIgnored(p) {
				continue
			}
			if r.positionUsed(group, pos) {
				continue
			}
			f.UnusedParameters = append(f.UnusedParameters, p)
			items = append(items, Item{
				Location: p.Location,
				Kind:     p.Kind,
				Name:     p.Name,
				Reason:   ReasonUnusedParameter,
			})
		}
	}
	return items
}

// allParametersRetained short-circuits the per-position check: foreign
// witnesses keep every parameter, and the protocol-parameter option keeps
// requirement and extension parameters wholesale.
func (r *run) allParametersRetained(group []*graph.Declaration) bool {
	for _, f := range group {
		if f.IsExternalWitness {
			return true
		}
		if r.cfg.RetainUnusedProtocolFuncParams && inProtocolScope(f) {
			return true
		}
	}
	return false
}

func inProtocolScope(f *graph.Declaration) bool {
	owner := f.Parent.NearestDecl()
	if owner == nil {
		return false
	}
	return owner.Kind == index.KindProtocol || owner.Kind == index.KindExtensionProtocol
}

// dispatchGroup collects the functions whose parameters at the same
// position are interchangeable at a call site.
func (r *run) dispatchGroup(f *graph.Declaration) []*graph.Declaration {
	set := map[*graph.Declaration]bool{f: true}

	// Whole override chain, both directions from the root.
	root := f
	for root.Overrides != nil {
		root = root.Overrides
	}
	collectOverrides(root, set)

	// Requirement, witnesses and extension defaults.
	if req := r.requirementFor(f); req != nil {
		set[req] = true
		p := req.Parent.NearestDecl()
		for _, conformer := range r.g.ConformancesOf(p.USR) {
			for _, member := range conformer.Declarations {
				if member.Kind == req.Kind && member.Name == req.Name {
					set[member] = true
				}
			}
		}
		for _, ext := range r.g.ExtensionsOf(p.USR) {
			for _, member := range ext.Declarations {
				if member.Kind == req.Kind && member.Name == req.Name {
					set[member] = true
				}
			}
		}
	}

	group := make([]*graph.Declaration, 0, len(set))
	for d := range set {
		group = append(group, d)
	}
	return group
}

func collectOverrides(d *graph.Declaration, set map[*graph.Declaration]bool) {
	set[d] = true
	for _, o := range d.OverriddenBy {
		collectOverrides(o, set)
	}
}

// requirementFor resolves the protocol requirement a function fulfills:
// the function itself when declared in a protocol, the matching slot when
// its owner conforms, or the slot of the extended protocol for extension
// defaults.
func (r *run) requirementFor(f *graph.Declaration) *graph.Declaration {
	owner := f.Parent.NearestDecl()
	if owner == nil {
		return nil
	}

	switch owner.Kind {
	case index.KindProtocol:
		return f
	case index.KindExtensionProtocol:
		for _, rel := range owner.Related {
			if p, ok := r.g.DeclarationByUSR(rel.USR); ok && p.Kind == index.KindProtocol {
				if req := memberMatching(p, f); req != nil {
					return req
				}
			}
		}
		return nil
	}

	for _, rel := range owner.Related {
		p, ok := r.g.DeclarationByUSR(rel.USR)
		if !ok || p.Kind != index.KindProtocol {
			continue
		}
		if req := memberMatching(p, f); req != nil {
			return req
		}
	}
	return nil
}

func memberMatching(p, f *graph.Declaration) *graph.Declaration {
	for _, member := range p.Declarations {
		if member.Kind == f.Kind && member.Name == f.Name {
			return member
		}
	}
	return nil
}

// positionUsed reports whether any group member's parameter at the given
// position is referenced.
func (r *run) positionUsed(group []*graph.Declaration, pos int) bool {
	for _, f := range group {
		params := f.Parameters()
		if pos >= len(params) {
			continue
		}
		if len(r.g.ReferencesTo(params[pos].USR)) > 0 {
			return true
		}
	}
	return false
}
