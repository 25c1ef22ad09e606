package mutator

import (
	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// ImplicitMembers synthesizes compiler-provided members the index never
// reports: memberwise initializers for structs, derived Equatable/Hashable/
// Codable witnesses, and handles CodingKeys retention.
type ImplicitMembers struct {
	cfg *config.Config
}

// Name identifies the pass.
func (m *ImplicitMembers) Name() string { return "implicit-members" }

// derived members per conformance protocol name.
var derivedMembers = map[string][]derivedMember{
	"Equatable": {{name: "==", kind: index.KindFunctionOperatorInfix}},
	"Hashable": {
		{name: "==", kind: index.KindFunctionOperatorInfix},
		{name: "hash(into:)", kind: index.KindFunctionMethodInstance},
	},
	"Decodable": {{name: "init(from:)", kind: index.KindFunctionConstructor}},
	"Encodable": {{name: "encode(to:)", kind: index.KindFunctionMethodInstance}},
	"Codable": {
		{name: "init(from:)", kind: index.KindFunctionConstructor},
		{name: "encode(to:)", kind: index.KindFunctionMethodInstance},
	},
}

type derivedMember struct {
	name string
	kind index.Kind
}

// Mutate synthesizes implicit members across the graph.
func (m *ImplicitMembers) Mutate(g *graph.Graph) error {
	for _, d := range g.Declarations() {
		switch d.Kind {
		case index.KindStruct:
			if err := m.synthesizeMemberwiseInit(g, d); err != nil {
				return err
			}
		}
		if d.Kind == index.KindStruct || d.Kind == index.KindClass || d.Kind == index.KindEnum {
			if err := m.synthesizeDerived(g, d); err != nil {
				return err
			}
			m.retainCodingKeys(g, d)
		}
	}
	return nil
}

// synthesizeMemberwiseInit adds the struct's memberwise initializer when
// no user-written constructor exists and every stored property is visible
// at the struct's own level.
func (m *ImplicitMembers) synthesizeMemberwiseInit(g *graph.Graph, s *graph.Declaration) error {
	for _, c := range s.Declarations {
		if c.Kind == index.KindFunctionConstructor && !c.IsImplicit {
			return nil
		}
	}

	stored := storedProperties(s)
	for _, p := range stored {
		if p.Accessibility < index.AccessInternal {
			return nil
		}
	}

	init := &graph.Declaration{
		Kind:          index.KindFunctionConstructor,
		Name:          "init",
		USR:           s.USR + "$memberwise-init",
		Module:        s.Module,
		Location:      s.Location,
		Accessibility: s.Accessibility.Min(index.AccessInternal),
		IsImplicit:    true,
	}
	added, err := m.addMember(g, s, init)
	if err != nil || added == nil {
		return err
	}
	// The initializer assigns every stored property; retention of the
	// initializer keeps the properties alive.
	for _, p := range stored {
		ref := &graph.Reference{
			Kind:     p.Kind.ReferenceEquivalent(),
			Name:     p.Name,
			USR:      p.USR,
			Location: added.Location,
			IsWrite:  true,
			Parent:   graph.DeclParent(added),
		}
		if r, fresh := g.AddReference(ref); fresh {
			added.References = append(added.References, r)
		}
	}
	return nil
}

// synthesizeDerived adds derived conformance witnesses that were declared
// by conformance but not user-written.
func (m *ImplicitMembers) synthesizeDerived(g *graph.Graph, d *graph.Declaration) error {
	for _, rel := range d.Related {
		members, ok := derivedMembers[rel.Name]
		if !ok {
			continue
		}
		for _, dm := range members {
			if hasMember(d, dm.kind, dm.name) {
				continue
			}
			member := &graph.Declaration{
				Kind:          dm.kind,
				Name:          dm.name,
				USR:           d.USR + "$derived-" + dm.name,
				Module:        d.Module,
				Location:      d.Location,
				Accessibility: d.Accessibility.Min(index.AccessInternal),
				IsImplicit:    true,
			}
			added, err := m.addMember(g, d, member)
			if err != nil || added == nil {
				return err
			}
			for _, p := range storedProperties(d) {
				ref := &graph.Reference{
					Kind:     p.Kind.ReferenceEquivalent(),
					Name:     p.Name,
					USR:      p.USR,
					Location: added.Location,
					Parent:   graph.DeclParent(added),
				}
				if r, fresh := g.AddReference(ref); fresh {
					added.References = append(added.References, r)
				}
			}
		}
	}
	return nil
}

// retainCodingKeys keeps a nested CodingKeys enum alive iff the enclosing
// type's conformance set includes a codable protocol.
func (m *ImplicitMembers) retainCodingKeys(g *graph.Graph, d *graph.Declaration) {
	var keys *graph.Declaration
	for _, c := range d.Declarations {
		if c.Kind == index.KindEnum && c.Name == "CodingKeys" {
			keys = c
			break
		}
	}
	if keys == nil || !m.isCodable(d) {
		return
	}
	g.MarkRetained(keys)
	for _, c := range keys.Declarations {
		if c.Kind == index.KindEnumElement {
			g.MarkRetained(c)
		}
	}
}

func (m *ImplicitMembers) isCodable(d *graph.Declaration) bool {
	for _, rel := range d.Related {
		switch rel.Name {
		case "Codable", "Encodable", "Decodable":
			return true
		}
		if m.cfg.IsExternalCodable(rel.USR) {
			return true
		}
	}
	return false
}

// addMember inserts a synthesized member under its parent. Returns nil when
// the member already exists (idempotent re-run).
func (m *ImplicitMembers) addMember(g *graph.Graph, parent, member *graph.Declaration) (*graph.Declaration, error) {
	if _, ok := g.DeclarationByUSR(member.USR); ok {
		return nil, nil
	}
	member.Parent = graph.DeclParent(parent)
	added, err := g.AddDeclaration(member)
	if err != nil {
		return nil, err
	}
	if added != member {
		return nil, nil
	}
	parent.Declarations = append(parent.Declarations, added)
	return added, nil
}

// storedProperties returns instance vars that look stored: no getter
// accessor child reported by the index.
func storedProperties(d *graph.Declaration) []*graph.Declaration {
	var out []*graph.Declaration
	for _, c := range d.Declarations {
		if c.Kind != index.KindVarInstance {
			continue
		}
		if hasAccessor(c, index.KindFunctionAccessorGetter) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasAccessor(v *graph.Declaration, kind index.Kind) bool {
	for _, c := range v.Declarations {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

func hasMember(d *graph.Declaration, kind index.Kind, name string) bool {
	for _, c := range d.Declarations {
		if c.Kind == kind && c.Name == name && !c.IsImplicit {
			return true
		}
	}
	return false
}
