package graph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/vestige-dev/vestige/pkg/index"
)

type kindNameKey struct {
	kind index.Kind
	name string
}

// Graph is the mutable source graph for one analysis run. It is built once
// by the indexer, transformed by the mutators in a fixed sequence, then
// read by the analyzer; no pass runs concurrently with another.
type Graph struct {
	decls []*Declaration
	refs  []*Reference

	byUsr         map[string]*Declaration
	byKindName    map[kindNameKey][]*Declaration
	byExtendedUsr map[string][]*Declaration
	conformances  map[string][]*Declaration
	incoming      map[string][]*Reference
	ignored       map[uint32]bool

	// seen keys (kind, usr, location) identity hashes for idempotent adds.
	seen map[uint64]uint32
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byUsr:         make(map[string]*Declaration),
		byKindName:    make(map[kindNameKey][]*Declaration),
		byExtendedUsr: make(map[string][]*Declaration),
		conformances:  make(map[string][]*Declaration),
		incoming:      make(map[string][]*Reference),
		ignored:       make(map[uint32]bool),
		seen:          make(map[uint64]uint32),
	}
}

func identity(kind index.Kind, usr string, loc index.Location, decl bool) uint64 {
	h := xxhash.New()
	h.WriteString(string(kind))
	h.WriteString("\x00")
	h.WriteString(usr)
	h.WriteString("\x00")
	h.WriteString(loc.File)
	h.WriteString("\x00")
	h.WriteString(strconv.Itoa(loc.Line))
	h.WriteString("\x00")
	h.WriteString(strconv.Itoa(loc.Column))
	if decl {
		h.WriteString("\x00d")
	}
	return h.Sum64()
}

// AddDeclaration inserts a declaration, assigning its dense ID. The insert
// is idempotent on (kind, usr, location): re-adding returns the existing
// node. A usr already bound to a different kind in the same module is a
// provider contract violation.
func (g *Graph) AddDeclaration(d *Declaration) (*Declaration, error) {
	key := identity(d.Kind, d.USR, d.Location, true)
	if id, ok := g.seen[key]; ok {
		return g.decls[id], nil
	}
	if existing, ok := g.byUsr[d.USR]; ok && existing.Module == d.Module && existing.Kind != d.Kind {
		return nil, fmt.Errorf("%w: usr %s bound to both %s and %s",
			index.ErrIndexInconsistency, d.USR, existing.Kind, d.Kind)
	}

	d.ID = uint32(len(g.decls))
	g.decls = append(g.decls, d)
	g.seen[key] = d.ID

	if _, ok := g.byUsr[d.USR]; !ok {
		g.byUsr[d.USR] = d
	}
	if d.Name != "" {
		k := kindNameKey{kind: d.Kind, name: d.Name}
		g.byKindName[k] = append(g.byKindName[k], d)
	}
	return d, nil
}

// AddReference inserts a reference edge, idempotent on (kind, usr,
// location). Reports whether the edge was newly added; on a duplicate the
// existing edge is returned so callers skip re-attachment.
func (g *Graph) AddReference(r *Reference) (*Reference, bool) {
	key := identity(r.Kind, r.USR, r.Location, false)
	if id, ok := g.seen[key]; ok {
		return g.refs[id], false
	}
	r.ID = uint32(len(g.refs))
	g.refs = append(g.refs, r)
	g.seen[key] = r.ID
	g.incoming[r.USR] = append(g.incoming[r.USR], r)
	return r, true
}

// DeclarationByUSR looks up the canonical declaration for a usr.
func (g *Graph) DeclarationByUSR(usr string) (*Declaration, bool) {
	d, ok := g.byUsr[usr]
	return d, ok
}

// DeclarationsByKindName returns declarations matching kind and name.
func (g *Graph) DeclarationsByKindName(kind index.Kind, name string) []*Declaration {
	return g.byKindName[kindNameKey{kind: kind, name: name}]
}

// IndexExtension records ext as extending the type with the given usr.
func (g *Graph) IndexExtension(extendedUSR string, ext *Declaration) {
	for _, e := range g.byExtendedUsr[extendedUSR] {
		if e == ext {
			return
		}
	}
	g.byExtendedUsr[extendedUSR] = append(g.byExtendedUsr[extendedUSR], ext)
}

// ExtensionsOf returns the extensions recorded for a type usr.
func (g *Graph) ExtensionsOf(usr string) []*Declaration {
	return g.byExtendedUsr[usr]
}

// IndexConformance records d as conforming to the protocol usr.
func (g *Graph) IndexConformance(protocolUSR string, d *Declaration) {
	for _, c := range g.conformances[protocolUSR] {
		if c == d {
			return
		}
	}
	g.conformances[protocolUSR] = append(g.conformances[protocolUSR], d)
}

// ConformancesOf returns the declarations conforming to a protocol usr.
func (g *Graph) ConformancesOf(protocolUSR string) []*Declaration {
	return g.conformances[protocolUSR]
}

// ReferencesTo returns all incoming edges naming the usr.
func (g *Graph) ReferencesTo(usr string) []*Reference {
	return g.incoming[usr]
}

// MarkIgnored excludes a declaration from unused reporting. It stays in
// the graph and participates in retention.
func (g *Graph) MarkIgnored(d *Declaration) {
	g.ignored[d.ID] = true
}

// IsIgnored reports whether the declaration carries an ignore directive.
func (g *Graph) IsIgnored(d *Declaration) bool {
	return g.ignored[d.ID]
}

// MarkRetained sets the retained flag; reports whether it was newly set.
func (g *Graph) MarkRetained(d *Declaration) bool {
	if d.Retained {
		return false
	}
	d.Retained = true
	return true
}

// Declarations returns every live declaration in insertion (ID) order.
func (g *Graph) Declarations() []*Declaration {
	out := make([]*Declaration, 0, len(g.decls))
	for _, d := range g.decls {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// References returns every live reference in insertion order.
func (g *Graph) References() []*Reference {
	out := make([]*Reference, 0, len(g.refs))
	for _, r := range g.refs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// DeclarationCount returns the number of live declarations.
func (g *Graph) DeclarationCount() int {
	n := 0
	for _, d := range g.decls {
		if d != nil {
			n++
		}
	}
	return n
}

// RootDeclarations returns parentless declarations ordered by location.
func (g *Graph) RootDeclarations() []*Declaration {
	var roots []*Declaration
	for _, d := range g.decls {
		if d != nil && d.Parent.IsZero() {
			roots = append(roots, d)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Location.Before(roots[j].Location)
	})
	return roots
}

// Descendants walks child declarations depth-first, d excluded.
func (g *Graph) Descendants(d *Declaration) []*Declaration {
	var out []*Declaration
	var walk func(*Declaration)
	walk = func(cur *Declaration) {
		for _, c := range cur.Declarations {
			out = append(out, c)
			walk(c)
		}
		for _, r := range cur.References {
			for _, c := range r.Declarations {
				out = append(out, c)
				walk(c)
			}
		}
	}
	walk(d)
	return out
}

// InheritedTypeReferences returns the transitive closure of structural
// edges from d, following class inheritance and protocol conformance.
func (g *Graph) InheritedTypeReferences(d *Declaration) []*Reference {
	var out []*Reference
	visited := make(map[string]bool)
	var walk func(*Declaration)
	walk = func(cur *Declaration) {
		for _, rel := range cur.Related {
			if visited[rel.USR] {
				continue
			}
			visited[rel.USR] = true
			out = append(out, rel)
			if target, ok := g.byUsr[rel.USR]; ok {
				switch target.Kind {
				case index.KindClass, index.KindProtocol:
					walk(target)
				}
			}
		}
	}
	walk(d)
	return out
}

// RemoveDeclaration detaches d from its parent and deletes d and its
// descendants, maintaining all indices. Used by mutators that reinterpret
// edges.
func (g *Graph) RemoveDeclaration(d *Declaration) {
	if p := d.Parent.Decl(); p != nil {
		p.Declarations = removeDecl(p.Declarations, d)
	} else if p := d.Parent.Ref(); p != nil {
		p.Declarations = removeDecl(p.Declarations, d)
	}
	g.removeSubtree(d)
}

func (g *Graph) removeSubtree(d *Declaration) {
	for _, c := range append([]*Declaration(nil), d.Declarations...) {
		g.removeSubtree(c)
	}
	for _, r := range append([]*Reference(nil), d.References...) {
		g.removeReference(r)
	}
	for _, r := range append([]*Reference(nil), d.Related...) {
		g.removeReference(r)
	}

	delete(g.seen, identity(d.Kind, d.USR, d.Location, true))
	if g.byUsr[d.USR] == d {
		delete(g.byUsr, d.USR)
	}
	if d.Name != "" {
		k := kindNameKey{kind: d.Kind, name: d.Name}
		g.byKindName[k] = removeDecl(g.byKindName[k], d)
		if len(g.byKindName[k]) == 0 {
			delete(g.byKindName, k)
		}
	}
	for usr, exts := range g.byExtendedUsr {
		g.byExtendedUsr[usr] = removeDecl(exts, d)
	}
	for usr, confs := range g.conformances {
		g.conformances[usr] = removeDecl(confs, d)
	}
	delete(g.ignored, d.ID)
	if int(d.ID) < len(g.decls) && g.decls[d.ID] == d {
		g.decls[d.ID] = nil
	}
}

func (g *Graph) removeReference(r *Reference) {
	for _, c := range append([]*Declaration(nil), r.Declarations...) {
		g.removeSubtree(c)
	}
	delete(g.seen, identity(r.Kind, r.USR, r.Location, false))
	g.incoming[r.USR] = removeRef(g.incoming[r.USR], r)
	if len(g.incoming[r.USR]) == 0 {
		delete(g.incoming, r.USR)
	}
	if int(r.ID) < len(g.refs) && g.refs[r.ID] == r {
		g.refs[r.ID] = nil
	}
}

func removeDecl(s []*Declaration, d *Declaration) []*Declaration {
	out := s[:0]
	for _, x := range s {
		if x != d {
			out = append(out, x)
		}
	}
	return out
}

func removeRef(s []*Reference, r *Reference) []*Reference {
	out := s[:0]
	for _, x := range s {
		if x != r {
			out = append(out, x)
		}
	}
	return out
}
