// Package indexer materializes provider occurrence streams into a source
// graph: declarations first, then reference edges, then resolution and
// parent rewiring.
package indexer

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/zeebo/blake3"

	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// Warning is a recoverable indexing problem: analysis continues, callers
// decide whether to surface it.
type Warning struct {
	Message  string
	Location index.Location
}

// Indexer pulls occurrences from a provider and builds the graph. Units
// are read in parallel; graph insertion is sequential in unit order, so a
// given provider output always produces the same graph.
type Indexer struct {
	provider index.Provider
	scan     func(path string) ([]directive, []string, error)
	resolve  func(path string) string
	progress func()
	workers  int
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithProgress installs a callback invoked once per ingested unit.
func WithProgress(fn func()) Option {
	return func(ix *Indexer) { ix.progress = fn }
}

// WithWorkers caps parallel unit reads.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithPathResolver installs a canonicalizer applied to every occurrence
// file path before it enters the graph.
func WithPathResolver(fn func(path string) string) Option {
	return func(ix *Indexer) { ix.resolve = fn }
}

// withDirectiveScanner substitutes the comment scanner; used by tests.
func withDirectiveScanner(fn func(path string) ([]directive, []string, error)) Option {
	return func(ix *Indexer) { ix.scan = fn }
}

// New creates an indexer over a provider.
func New(p index.Provider, opts ...Option) *Indexer {
	ix := &Indexer{
		provider: p,
		scan:     scanDirectives,
		resolve:  func(path string) string { return path },
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// kinds whose unresolved references are expected externals and carry no
// warning.
var knownExternalKinds = map[index.Kind]bool{
	index.KindModule:          true,
	index.KindPrecedenceGroup: true,
}

// Index runs the full materialization and returns the populated graph.
func (ix *Indexer) Index(ctx context.Context) (*graph.Graph, []Warning, error) {
	units, err := ix.provider.Units(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list units: %w", err)
	}

	unitOccs := make([][]index.Occurrence, len(units))
	p := pool.New().WithMaxGoroutines(ix.workers).WithContext(ctx)
	for i, unit := range units {
		p.Go(func(ctx context.Context) error {
			var occs []index.Occurrence
			err := ix.provider.Each(ctx, unit, func(o index.Occurrence) error {
				o.File = ix.resolve(o.File)
				occs = append(occs, o)
				return nil
			})
			if err != nil {
				return fmt.Errorf("unit %s: %w", unit, err)
			}
			unitOccs[i] = occs
			if ix.progress != nil {
				ix.progress()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	b := &builder{
		graph:   graph.New(),
		seen:    make(map[[32]byte]bool),
		modules: make(map[string]*graph.Declaration),
		scan:    ix.scan,
	}

	for _, occs := range unitOccs {
		for _, o := range occs {
			if o.Role != index.RoleDefinition || b.duplicate(o) {
				continue
			}
			if err := b.addDefinition(o); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := b.wireParents(); err != nil {
		return nil, nil, err
	}
	b.attachDirectives()

	for _, occs := range unitOccs {
		for _, o := range occs {
			if o.Role == index.RoleDefinition || b.duplicate(o) {
				continue
			}
			if err := b.addReference(o); err != nil {
				return nil, nil, err
			}
		}
	}

	b.resolve()
	b.rewireAccessors()
	b.indexStructure()

	return b.graph, b.warnings, nil
}

// builder holds the state of one materialization run.
type builder struct {
	graph    *graph.Graph
	seen     map[[32]byte]bool
	modules  map[string]*graph.Declaration
	scan     func(path string) ([]directive, []string, error)
	warnings []Warning

	// pending containers for definitions, wired once all are present.
	pending []pendingParent
}

type pendingParent struct {
	decl      *graph.Declaration
	container string
	occ       index.Occurrence
}

// duplicate records and checks the occurrence identity hash.
func (b *builder) duplicate(o index.Occurrence) bool {
	data := strings.Join([]string{
		o.Module, o.File, strconv.Itoa(o.Line), strconv.Itoa(o.Column),
		string(o.Kind), o.USR, string(o.Role),
	}, "\x00")
	key := blake3.Sum256([]byte(data))
	if b.seen[key] {
		return true
	}
	b.seen[key] = true
	return false
}

func (b *builder) addDefinition(o index.Occurrence) error {
	d := &graph.Declaration{
		Kind:       o.Kind,
		Name:       o.Name,
		USR:        o.USR,
		Module:     o.Module,
		Location:   o.Location(),
		Attributes: stringSet(o.Attributes),
		Modifiers:  stringSet(o.Modifiers),
		IsImplicit: o.Implicit,
	}
	if o.Accessibility != "" {
		acc, err := index.ParseAccessibility(o.Accessibility)
		if err != nil {
			return index.Inconsistency(o, "%v", err)
		}
		d.Accessibility = acc
		d.ExplicitAccessibility = true
	} else {
		d.Accessibility = index.AccessInternal
	}

	added, err := b.graph.AddDeclaration(d)
	if err != nil {
		return err
	}
	if added != d {
		return nil // duplicate definition, de-duplicated
	}
	b.pending = append(b.pending, pendingParent{decl: d, container: o.ContainerUSR, occ: o})
	return nil
}

func (b *builder) wireParents() error {
	for _, pp := range b.pending {
		if pp.container == "" {
			continue
		}
		c, ok := b.graph.DeclarationByUSR(pp.container)
		if !ok {
			return index.Inconsistency(pp.occ, "dangling container %s", pp.container)
		}
		pp.decl.Parent = graph.DeclParent(c)
		c.Declarations = append(c.Declarations, pp.decl)
	}
	return nil
}

// attachDirectives scans each file mentioned by a declaration once and
// attaches commands to the declaration starting on the line after the
// comment, or on the comment's own line (trailing form).
func (b *builder) attachDirectives() {
	byFileLine := make(map[string]map[int][]*graph.Declaration)
	for _, d := range b.graph.Declarations() {
		if d.Location.File == "" {
			continue
		}
		lines, ok := byFileLine[d.Location.File]
		if !ok {
			lines = make(map[int][]*graph.Declaration)
			byFileLine[d.Location.File] = lines
		}
		lines[d.Location.Line] = append(lines[d.Location.Line], d)
	}

	for file, lines := range byFileLine {
		dirs, warns, err := b.scan(file)
		if err != nil {
			// Missing or unreadable sources only cost directives.
			continue
		}
		for _, w := range warns {
			b.warnings = append(b.warnings, Warning{Message: w})
		}
		for _, dir := range dirs {
			targets := lines[dir.line+1]
			if len(targets) == 0 {
				targets = lines[dir.line]
			}
			for _, d := range targets {
				d.CommentCommands = append(d.CommentCommands, dir.command)
			}
		}
	}
}

func (b *builder) addReference(o index.Occurrence) error {
	container, err := b.container(o)
	if err != nil {
		return err
	}

	r := &graph.Reference{
		Kind:      o.Kind,
		Name:      o.Name,
		USR:       o.USR,
		Location:  o.Location(),
		IsRelated: o.Role == index.RoleRelated,
		IsWrite:   o.Write,
		Parent:    graph.DeclParent(container),
	}
	r, added := b.graph.AddReference(r)
	if !added {
		return nil
	}
	if r.IsRelated {
		container.Related = append(container.Related, r)
	} else {
		container.References = append(container.References, r)
	}
	return nil
}

// container resolves a reference's enclosing declaration. An empty
// container means file top level, modeled as one synthetic module
// declaration per module.
func (b *builder) container(o index.Occurrence) (*graph.Declaration, error) {
	if o.ContainerUSR == "" {
		return b.moduleContainer(o.Module), nil
	}
	c, ok := b.graph.DeclarationByUSR(o.ContainerUSR)
	if !ok {
		return nil, index.Inconsistency(o, "dangling container %s", o.ContainerUSR)
	}
	return c, nil
}

func (b *builder) moduleContainer(module string) *graph.Declaration {
	if d, ok := b.modules[module]; ok {
		return d
	}
	d := &graph.Declaration{
		Kind:       index.KindModule,
		Name:       module,
		USR:        "module:" + module,
		Module:     module,
		IsImplicit: true,
	}
	added, _ := b.graph.AddDeclaration(d)
	b.modules[module] = added
	return added
}

// resolve normalizes resolved edges to their target's kind and records a
// warning for unresolved edges of unexpected kinds.
func (b *builder) resolve() {
	for _, r := range b.graph.References() {
		target, ok := b.graph.DeclarationByUSR(r.USR)
		if ok {
			r.Kind = target.Kind.ReferenceEquivalent()
			if r.Name == "" {
				r.Name = target.Name
			}
			continue
		}
		if !knownExternalKinds[r.Kind] {
			b.warnings = append(b.warnings, Warning{
				Message:  fmt.Sprintf("unresolved reference to %s (%s); treated as external", r.USR, r.Kind),
				Location: r.Location,
			})
		}
	}
}

// rewireAccessors reparents accessor declarations under their owning
// variable when the provider attached them elsewhere. Ownership is
// recovered from the accessor name form "getter:x" / "setter:x".
func (b *builder) rewireAccessors() {
	for _, d := range b.graph.Declarations() {
		if !d.Kind.IsAccessor() {
			continue
		}
		parent := d.Parent.NearestDecl()
		if parent == nil || parent.Kind.IsVariable() {
			continue
		}
		name := d.Name
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[i+1:]
		}
		for _, sibling := range parent.Declarations {
			if sibling == d || !sibling.Kind.IsVariable() || sibling.Name != name {
				continue
			}
			parent.Declarations = removeChild(parent.Declarations, d)
			d.Parent = graph.DeclParent(sibling)
			sibling.Declarations = append(sibling.Declarations, d)
			break
		}
	}
}

// indexStructure fills the extension and conformance indices from related
// edges.
func (b *builder) indexStructure() {
	for _, d := range b.graph.Declarations() {
		if d.Kind.IsExtension() {
			for _, rel := range d.Related {
				b.graph.IndexExtension(rel.USR, d)
			}
		}
		for _, rel := range d.Related {
			if target, ok := b.graph.DeclarationByUSR(rel.USR); ok && target.Kind == index.KindProtocol {
				b.graph.IndexConformance(rel.USR, d)
			}
		}
	}
}

func stringSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

func removeChild(s []*graph.Declaration, d *graph.Declaration) []*graph.Declaration {
	out := s[:0]
	for _, x := range s {
		if x != d {
			out = append(out, x)
		}
	}
	return out
}
