package mutator

import (
	"errors"
	"testing"

	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

func addDecl(t *testing.T, g *graph.Graph, kind index.Kind, usr, name string, parent *graph.Declaration, file string, line int) *graph.Declaration {
	t.Helper()
	d := &graph.Declaration{
		Kind:          kind,
		Name:          name,
		USR:           usr,
		Module:        "main",
		Location:      index.Location{File: file, Line: line, Column: 1},
		Accessibility: index.AccessInternal,
	}
	if parent != nil {
		d.Parent = graph.DeclParent(parent)
	}
	added, err := g.AddDeclaration(d)
	if err != nil {
		t.Fatalf("AddDeclaration(%s): %v", usr, err)
	}
	if parent != nil {
		parent.Declarations = append(parent.Declarations, added)
	}
	return added
}

func addRelated(t *testing.T, g *graph.Graph, from *graph.Declaration, kind index.Kind, usr, name string) *graph.Reference {
	t.Helper()
	r := &graph.Reference{
		Kind:      kind,
		Name:      name,
		USR:       usr,
		Location:  from.Location,
		IsRelated: true,
		Parent:    graph.DeclParent(from),
	}
	r, _ = g.AddReference(r)
	from.Related = append(from.Related, r)
	return r
}

func TestCommentIgnoreCoversDescendants(t *testing.T) {
	g := graph.New()
	c := addDecl(t, g, index.KindClass, "s:C", "C", nil, "/proj/c.swift", 2)
	m := addDecl(t, g, index.KindFunctionMethodInstance, "s:C.m", "m()", c, "/proj/c.swift", 3)
	c.CommentCommands = []graph.CommentCommand{graph.CommandIgnore}

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !g.IsIgnored(c) || !g.IsIgnored(m) {
		t.Error("expected class and member ignored")
	}
}

func TestCommentIgnoreParameters(t *testing.T) {
	g := graph.New()
	f := addDecl(t, g, index.KindFunctionFree, "s:f", "f(x:)", nil, "/proj/f.swift", 1)
	p := addDecl(t, g, index.KindVarParameter, "s:f.x", "x", f, "/proj/f.swift", 1)
	f.CommentCommands = []graph.CommentCommand{graph.CommandIgnoreParameters}

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if g.IsIgnored(f) {
		t.Error("function itself must stay reportable")
	}
	if !g.IsIgnored(p) {
		t.Error("expected parameter ignored")
	}
}

func TestCommentIgnoreAllToEndOfFile(t *testing.T) {
	g := graph.New()
	before := addDecl(t, g, index.KindClass, "s:Before", "Before", nil, "/proj/f.swift", 1)
	marked := addDecl(t, g, index.KindClass, "s:Marked", "Marked", nil, "/proj/f.swift", 5)
	after := addDecl(t, g, index.KindClass, "s:After", "After", nil, "/proj/f.swift", 9)
	other := addDecl(t, g, index.KindClass, "s:Other", "Other", nil, "/proj/g.swift", 1)
	marked.CommentCommands = []graph.CommentCommand{graph.CommandIgnoreAll}

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if g.IsIgnored(before) {
		t.Error("declarations before the directive stay reportable")
	}
	if !g.IsIgnored(marked) || !g.IsIgnored(after) {
		t.Error("expected directive line and rest of file ignored")
	}
	if g.IsIgnored(other) {
		t.Error("other files are unaffected")
	}
}

func TestExtensionAccessibilityPropagates(t *testing.T) {
	g := graph.New()
	c := addDecl(t, g, index.KindClass, "s:C", "C", nil, "/proj/c.swift", 1)
	c.Accessibility = index.AccessPublic
	ext := addDecl(t, g, index.KindExtensionClass, "s:e:C", "C", nil, "/proj/ext.swift", 1)
	addRelated(t, g, ext, index.KindClass, "s:C", "C")
	member := addDecl(t, g, index.KindFunctionMethodInstance, "s:e:C.m", "m()", ext, "/proj/ext.swift", 2)

	explicit := addDecl(t, g, index.KindFunctionMethodInstance, "s:e:C.p", "p()", ext, "/proj/ext.swift", 3)
	explicit.Accessibility = index.AccessPrivate
	explicit.ExplicitAccessibility = true

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ext.Accessibility != index.AccessPublic {
		t.Errorf("extension inherits extended type accessibility, got %s", ext.Accessibility)
	}
	if member.Accessibility != index.AccessPublic {
		t.Errorf("member without explicit modifier takes extension level, got %s", member.Accessibility)
	}
	if explicit.Accessibility != index.AccessPrivate {
		t.Errorf("explicit member keeps its level, got %s", explicit.Accessibility)
	}
}

func TestMemberwiseInitializerSynthesis(t *testing.T) {
	g := graph.New()
	s := addDecl(t, g, index.KindStruct, "s:S", "S", nil, "/proj/s.swift", 1)
	addDecl(t, g, index.KindVarInstance, "s:S.x", "x", s, "/proj/s.swift", 2)

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	init, ok := g.DeclarationByUSR("s:S$memberwise-init")
	if !ok {
		t.Fatal("expected synthesized memberwise initializer")
	}
	if !init.IsImplicit || init.Kind != index.KindFunctionConstructor {
		t.Errorf("unexpected synthesized member: %+v", init)
	}
	if len(init.References) != 1 || init.References[0].USR != "s:S.x" {
		t.Error("initializer must reference every stored property")
	}
}

func TestNoMemberwiseInitWithUserConstructor(t *testing.T) {
	g := graph.New()
	s := addDecl(t, g, index.KindStruct, "s:S", "S", nil, "/proj/s.swift", 1)
	addDecl(t, g, index.KindFunctionConstructor, "s:S.init", "init()", s, "/proj/s.swift", 2)

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, ok := g.DeclarationByUSR("s:S$memberwise-init"); ok {
		t.Error("user-written constructor suppresses synthesis")
	}
}

func TestCodingKeysRetention(t *testing.T) {
	g := graph.New()
	s := addDecl(t, g, index.KindStruct, "s:S", "S", nil, "/proj/s.swift", 1)
	addRelated(t, g, s, index.KindProtocol, "s:s7Codable", "Codable")
	keys := addDecl(t, g, index.KindEnum, "s:S.CodingKeys", "CodingKeys", s, "/proj/s.swift", 2)
	elem := addDecl(t, g, index.KindEnumElement, "s:S.CodingKeys.x", "x", keys, "/proj/s.swift", 3)

	plain := addDecl(t, g, index.KindStruct, "s:T", "T", nil, "/proj/t.swift", 1)
	orphanKeys := addDecl(t, g, index.KindEnum, "s:T.CodingKeys", "CodingKeys", plain, "/proj/t.swift", 2)

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !keys.Retained || !elem.Retained {
		t.Error("CodingKeys of a codable type is retained with its cases")
	}
	if orphanKeys.Retained {
		t.Error("CodingKeys without codable conformance stays reportable")
	}
}

func TestExternalConformanceMarksWitnesses(t *testing.T) {
	g := graph.New()
	c := addDecl(t, g, index.KindClass, "s:C", "C", nil, "/proj/c.swift", 1)
	addRelated(t, g, c, index.KindProtocol, "s:ExternalProto", "Remote")
	m := addDecl(t, g, index.KindFunctionMethodInstance, "s:C.m", "handle()", c, "/proj/c.swift", 2)
	v := addDecl(t, g, index.KindVarInstance, "s:C.v", "value", c, "/proj/c.swift", 3)

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !m.IsExternalWitness || !m.Retained {
		t.Error("method witness slot must be marked and retained")
	}
	if !v.IsExternalWitness || !v.Retained {
		t.Error("property witness slot must be marked and retained")
	}
}

func TestOverrideChainLinking(t *testing.T) {
	g := graph.New()
	b := addDecl(t, g, index.KindClass, "s:B", "B", nil, "/proj/b.swift", 1)
	bm := addDecl(t, g, index.KindFunctionMethodInstance, "s:B.m", "m()", b, "/proj/b.swift", 2)
	mid := addDecl(t, g, index.KindClass, "s:M", "M", nil, "/proj/m.swift", 1)
	addRelated(t, g, mid, index.KindClass, "s:B", "B")
	s := addDecl(t, g, index.KindClass, "s:S", "S", nil, "/proj/s.swift", 1)
	addRelated(t, g, s, index.KindClass, "s:M", "M")
	sm := addDecl(t, g, index.KindFunctionMethodInstance, "s:S.m", "m()", s, "/proj/s.swift", 2)
	sm.Modifiers = map[string]bool{"override": true}

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sm.Overrides != bm {
		t.Errorf("expected override linked through intermediate class, got %+v", sm.Overrides)
	}
	if len(bm.OverriddenBy) != 1 || bm.OverriddenBy[0] != sm {
		t.Error("expected reverse link on the base method")
	}
}

func TestEntryPointFileRetainsTopLevels(t *testing.T) {
	g := graph.New()
	top := addDecl(t, g, index.KindFunctionFree, "s:run", "run()", nil, "/proj/main.swift", 1)
	other := addDecl(t, g, index.KindClass, "s:C", "C", nil, "/proj/c.swift", 1)

	if err := Run(g, config.Default()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !top.Retained {
		t.Error("top-level declaration of main.swift is an entry point")
	}
	if other.Retained {
		t.Error("other files are unaffected")
	}
}

func TestExplicitEntryPointMissingIsFatal(t *testing.T) {
	g := graph.New()
	addDecl(t, g, index.KindClass, "s:C", "C", nil, "/proj/c.swift", 1)

	cfg := config.Default()
	cfg.EntryPointFilenames = []string{"app.swift"}
	cfg.EntryPointsExplicit = true

	err := Run(g, cfg)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestMutatorsAreIdempotent(t *testing.T) {
	g := graph.New()
	s := addDecl(t, g, index.KindStruct, "s:S", "S", nil, "/proj/s.swift", 1)
	addRelated(t, g, s, index.KindProtocol, "s:s7Codable", "Codable")
	addDecl(t, g, index.KindVarInstance, "s:S.x", "x", s, "/proj/s.swift", 2)
	c := addDecl(t, g, index.KindClass, "s:C", "C", nil, "/proj/main.swift", 1)
	c.CommentCommands = []graph.CommentCommand{graph.CommandIgnore}

	cfg := config.Default()
	if err := Run(g, cfg); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	count := g.DeclarationCount()
	refs := len(g.References())

	if err := Run(g, cfg); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if g.DeclarationCount() != count || len(g.References()) != refs {
		t.Errorf("second run changed the graph: %d/%d decls, %d/%d refs",
			count, g.DeclarationCount(), refs, len(g.References()))
	}
}
