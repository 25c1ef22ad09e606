package retention

import (
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// trivialInitAttribute marks a stored property whose initializer the
// provider judged side-effect free: a literal, nil, or a plain constructor
// call.
const trivialInitAttribute = "trivialInit"

// assignOnlyProperties reports stored instance properties that are only
// ever written. A property with a non-trivial initializer stays out of the
// report: removing it could change behavior. Computed properties are never
// assign-only.
func (r *run) assignOnlyProperties() []Item {
	if r.cfg.RetainAssignOnlyProperties {
		return nil
	}

	var items []Item
	for _, d := range r.g.Declarations() {
		if !d.Retained || r.g.IsIgnored(d) || d.IsImplicit {
			continue
		}
		if d.Kind != index.KindVarInstance || !isStored(d) {
			continue
		}
		if !d.HasAttribute(trivialInitAttribute) {
			continue
		}
		if !writeOnly(r.g.ReferencesTo(d.USR)) {
			continue
		}
		if r.excluded(d.Location.File) {
			continue
		}
		items = append(items, Item{
			Location: d.Location,
			Kind:     d.Kind,
			Name:     d.Name,
			Reason:   ReasonAssignOnly,
		})
	}
	return items
}

// isStored mirrors the implicit-member heuristic: a var with a getter
// accessor child is computed.
func isStored(v *graph.Declaration) bool {
	for _, c := range v.Declarations {
		if c.Kind == index.KindFunctionAccessorGetter {
			return false
		}
	}
	return true
}

// writeOnly reports whether every incoming use is an assignment. A
// property with no uses at all is plain unused, not assign-only.
func writeOnly(refs []*graph.Reference) bool {
	if len(refs) == 0 {
		return false
	}
	for _, r := range refs {
		if r.IsRelated {
			continue
		}
		if !r.IsWrite {
			return false
		}
	}
	return true
}
