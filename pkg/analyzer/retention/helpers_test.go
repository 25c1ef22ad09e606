package retention

import (
	"context"
	"sort"
	"testing"

	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
	"github.com/vestige-dev/vestige/pkg/indexer"
	"github.com/vestige-dev/vestige/pkg/mutator"
)

// fakeProvider serves in-memory occurrences, one unit per file.
type fakeProvider struct {
	units map[string][]index.Occurrence
	order []string
}

func newFakeProvider(occs []index.Occurrence) *fakeProvider {
	p := &fakeProvider{units: make(map[string][]index.Occurrence)}
	for _, o := range occs {
		if _, ok := p.units[o.File]; !ok {
			p.order = append(p.order, o.File)
		}
		p.units[o.File] = append(p.units[o.File], o)
	}
	sort.Strings(p.order)
	return p
}

func (p *fakeProvider) Units(ctx context.Context) ([]string, error) {
	return p.order, nil
}

func (p *fakeProvider) Each(ctx context.Context, unit string, fn func(index.Occurrence) error) error {
	for _, o := range p.units[unit] {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

// occurrence builders

type occ struct {
	o index.Occurrence
}

func def(kind index.Kind, usr, name, container, file string, line int) occ {
	return occ{o: index.Occurrence{
		Module: "main", File: file, Line: line, Column: 1,
		Kind: kind, Name: name, USR: usr, Role: index.RoleDefinition,
		ContainerUSR: container,
	}}
}

func ref(kind index.Kind, usr, container, file string, line int) occ {
	return occ{o: index.Occurrence{
		Module: "main", File: file, Line: line, Column: 1,
		Kind: kind, USR: usr, Role: index.RoleReference,
		ContainerUSR: container,
	}}
}

func related(kind index.Kind, usr, name, container, file string, line int) occ {
	return occ{o: index.Occurrence{
		Module: "main", File: file, Line: line, Column: 1,
		Kind: kind, Name: name, USR: usr, Role: index.RoleRelated,
		ContainerUSR: container,
	}}
}

func (c occ) module(m string) occ       { c.o.Module = m; return c }
func (c occ) access(a string) occ       { c.o.Accessibility = a; return c }
func (c occ) attrs(attrs ...string) occ { c.o.Attributes = attrs; return c }
func (c occ) mods(mods ...string) occ   { c.o.Modifiers = mods; return c }
func (c occ) write() occ                { c.o.Write = true; return c }

func occurrences(items ...occ) []index.Occurrence {
	out := make([]index.Occurrence, len(items))
	for i, it := range items {
		out[i] = it.o
	}
	return out
}

// runScenario drives the full pipeline: index, mutate, analyze.
func runScenario(t *testing.T, cfg *config.Config, occs []index.Occurrence) (*Result, *graph.Graph) {
	t.Helper()
	g, _, err := indexer.New(newFakeProvider(occs)).Index(context.Background())
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if err := mutator.Run(g, cfg); err != nil {
		t.Fatalf("mutators failed: %v", err)
	}
	result, err := New(cfg).Analyze(g)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return result, g
}

func unreferencedNames(r *Result) []string {
	names := make([]string, 0, len(r.Unreferenced))
	for _, it := range r.Unreferenced {
		names = append(names, it.Name)
	}
	return names
}

func containsName(items []Item, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}

func declaration(t *testing.T, g *graph.Graph, usr string) *graph.Declaration {
	t.Helper()
	d, ok := g.DeclarationByUSR(usr)
	if !ok {
		t.Fatalf("declaration %s not in graph", usr)
	}
	return d
}
