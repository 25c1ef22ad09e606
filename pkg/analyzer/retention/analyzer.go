package retention

import (
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// Analyzer marks retained declarations and reports the remainder.
// Retention is a monotone fixpoint: re-running Analyze over an analyzed
// graph changes nothing.
type Analyzer struct {
	cfg *config.Config
}

// New creates an analyzer with the given options.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs seeding, the worklist pass, parameter analysis and the
// assign-only rule, then builds the sorted report.
func (a *Analyzer) Analyze(g *graph.Graph) (*Result, error) {
	r := &run{
		cfg:      a.cfg,
		g:        g,
		retained: roaring.New(),
	}
	r.seed()
	r.propagate()

	unusedParams := r.analyzeParameters()
	assignOnly := r.assignOnlyProperties()

	return r.report(unusedParams, assignOnly), nil
}

// run is the state of one analysis pass.
type run struct {
	cfg      *config.Config
	g        *graph.Graph
	retained *roaring.Bitmap
	queue    []*graph.Declaration
}

// retain marks a declaration and schedules its consequences. The bitmap
// guards against reprocessing; the lattice is finite and marking only
// grows it, so the worklist terminates.
func (r *run) retain(d *graph.Declaration) {
	if d == nil || r.retained.Contains(d.ID) {
		return
	}
	r.retained.Add(d.ID)
	r.g.MarkRetained(d)
	r.queue = append(r.queue, d)
}

// propagate drains the worklist, applying the propagation rules to each
// newly retained declaration.
func (r *run) propagate() {
	for len(r.queue) > 0 {
		d := r.queue[len(r.queue)-1]
		r.queue = r.queue[:len(r.queue)-1]
		r.visit(d)
	}
}

func (r *run) visit(d *graph.Declaration) {
	// Enclosing scopes stay alive.
	for _, anc := range d.Ancestors() {
		r.retain(anc)
	}

	// Everything the declaration uses.
	r.retainReferences(d.References)

	switch {
	case d.Kind == index.KindClass:
		// A live class needs its superclass chain, its destructor, and
		// its implicit default constructor.
		if super := superclass(r.g, d); super != nil {
			r.retain(super)
		}
		for _, c := range d.Declarations {
			if c.Kind == index.KindFunctionDestructor {
				r.retain(c)
			}
			if c.Kind == index.KindFunctionConstructor && c.IsImplicit {
				r.retain(c)
			}
		}
	case d.Kind == index.KindProtocol:
		r.retainWitnesses(d)
	case d.Kind == index.KindEnum && isRawRepresentable(d):
		// Raw-value decoding can construct any case at runtime.
		for _, c := range d.Declarations {
			if c.Kind == index.KindEnumElement {
				r.retain(c)
			}
		}
	case d.Kind == index.KindTypealias:
		for _, rel := range d.Related {
			if target, ok := r.g.DeclarationByUSR(rel.USR); ok {
				r.retain(target)
			}
		}
	case d.Kind.IsVariable():
		// Accessors live and die with their property.
		for _, c := range d.Declarations {
			if c.Kind.IsAccessor() {
				r.retain(c)
			}
		}
	}

	// A retained override keeps the declaration it dispatches through.
	if d.Overrides != nil {
		r.retain(d.Overrides)
	}

	// A retained protocol requirement keeps its witnesses and any default
	// implementation in a protocol extension, even when every conformer
	// shadows it: removing the default changes dispatch.
	if owner := d.Parent.NearestDecl(); owner != nil && owner.Kind == index.KindProtocol {
		r.retainRequirementFulfillers(owner, d)
	}
}

func (r *run) retainReferences(refs []*graph.Reference) {
	for _, ref := range refs {
		if target, ok := r.g.DeclarationByUSR(ref.USR); ok {
			r.retain(target)
		}
		if len(ref.References) > 0 {
			r.retainReferences(ref.References)
		}
	}
}

// retainWitnesses applies the conformance rule for a retained protocol:
// every direct member of a conforming type that fills one of the
// protocol's witness slots is kept. Only direct members; the witness
// table is tied to the conforming type, not its subclasses.
func (r *run) retainWitnesses(p *graph.Declaration) {
	for _, conformer := range r.g.ConformancesOf(p.USR) {
		for _, req := range p.Declarations {
			if !isRequirement(req) {
				continue
			}
			for _, member := range conformer.Declarations {
				if member.Kind == req.Kind && member.Name == req.Name {
					r.retain(member)
				}
			}
		}
	}
}

// retainRequirementFulfillers keeps witnesses and protocol-extension
// defaults of one retained requirement.
func (r *run) retainRequirementFulfillers(p, req *graph.Declaration) {
	for _, conformer := range r.g.ConformancesOf(p.USR) {
		for _, member := range conformer.Declarations {
			if member.Kind == req.Kind && member.Name == req.Name {
				r.retain(member)
			}
		}
	}
	for _, ext := range r.g.ExtensionsOf(p.USR) {
		for _, member := range ext.Declarations {
			if member.Kind == req.Kind && member.Name == req.Name {
				r.retain(member)
			}
		}
	}
}

// isRequirement reports whether a protocol member is a dispatchable
// requirement slot.
func isRequirement(d *graph.Declaration) bool {
	switch {
	case d.Kind.IsFunction() && !d.Kind.IsAccessor():
		return true
	case d.Kind.IsVariable() && d.Kind != index.KindVarParameter && d.Kind != index.KindVarLocal:
		return true
	case d.Kind == index.KindAssociatedType:
		return true
	}
	return false
}

// rawValueTypeNames are the bases that make an enum reconstructible from a
// raw value at runtime.
var rawValueTypeNames = map[string]bool{
	"String":           true,
	"Int":              true,
	"Character":        true,
	"Float":            true,
	"Double":           true,
	"RawRepresentable": true,
}

func isRawRepresentable(e *graph.Declaration) bool {
	for _, rel := range e.Related {
		if rawValueTypeNames[rel.Name] {
			return true
		}
	}
	return false
}

// superclass resolves the in-graph superclass of a class.
func superclass(g *graph.Graph, d *graph.Declaration) *graph.Declaration {
	for _, rel := range d.Related {
		if target, ok := g.DeclarationByUSR(rel.USR); ok && target.Kind == index.KindClass {
			return target
		}
	}
	return nil
}

// report assembles the sorted result.
func (r *run) report(unusedParams, assignOnly []Item) *Result {
	res := &Result{
		UnusedParameters: unusedParams,
		AssignOnly:       assignOnly,
	}

	declarations, retained, ignored := 0, 0, 0
	for _, d := range r.g.Declarations() {
		if d.Kind == index.KindModule {
			continue
		}
		declarations++
		switch {
		case d.Retained:
			retained++
		case r.g.IsIgnored(d):
			ignored++
		case r.reportable(d):
			res.Unreferenced = append(res.Unreferenced, Item{
				Location: d.Location,
				Kind:     d.Kind,
				Name:     d.Name,
				Reason:   ReasonUnused,
			})
		}
	}

	sortItems(res.Unreferenced)
	sortItems(res.AssignOnly)
	sortItems(res.UnusedParameters)
	buildSummary(res, declarations, retained, ignored)
	return res
}

// reportable filters declarations that make sense in a reviewer-facing
// report: no synthesized members, no accessors or locals (their property
// or function is the actionable item), no parameters (reported
// separately), and nothing matching a report-exclude pattern.
func (r *run) reportable(d *graph.Declaration) bool {
	if d.IsImplicit || d.Kind.IsAccessor() {
		return false
	}
	if d.Kind == index.KindVarParameter || d.Kind == index.KindVarLocal {
		return false
	}
	return !r.excluded(d.Location.File)
}

func (r *run) excluded(path string) bool {
	for _, pattern := range r.cfg.ReportExclude {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
