package retention

import (
	"reflect"
	"testing"

	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/index"
)

func TestLoneClassReportedUnused(t *testing.T) {
	result, _ := runScenario(t, config.Default(), occurrences(
		def(index.KindClass, "s:A", "A", "", "/proj/a.swift", 1),
	))

	if len(result.Unreferenced) != 1 || result.Unreferenced[0].Name != "A" {
		t.Fatalf("expected only A unused, got %v", unreferencedNames(result))
	}
}

func TestSelfReferenceDoesNotRetain(t *testing.T) {
	result, _ := runScenario(t, config.Default(), occurrences(
		def(index.KindClass, "s:A", "A", "", "/proj/a.swift", 1),
		def(index.KindFunctionMethodInstance, "s:A.f", "f()", "s:A", "/proj/a.swift", 2),
		ref(index.KindFunctionMethodInstance, "s:A.f", "s:A.f", "/proj/a.swift", 3),
	))

	names := unreferencedNames(result)
	if !containsName(result.Unreferenced, "A") || !containsName(result.Unreferenced, "f()") {
		t.Fatalf("expected A and f() unused, got %v", names)
	}
}

func TestRawValueEnumRetainsAllCases(t *testing.T) {
	cfg := config.Default()
	cfg.RetainPublic = true

	result, g := runScenario(t, cfg, occurrences(
		def(index.KindEnum, "s:E", "E", "", "/proj/e.swift", 1).access("public"),
		related(index.KindStruct, "s:Si", "Int", "s:E", "/proj/e.swift", 1),
		def(index.KindEnumElement, "s:E.used", "used", "s:E", "/proj/e.swift", 2),
		def(index.KindEnumElement, "s:E.unused", "unused", "s:E", "/proj/e.swift", 3),
		ref(index.KindEnumElement, "s:E.used", "", "/proj/use.swift", 1),
	))

	if len(result.Unreferenced) != 0 {
		t.Fatalf("expected nothing unused, got %v", unreferencedNames(result))
	}
	for _, usr := range []string{"s:E", "s:E.used", "s:E.unused"} {
		if !declaration(t, g, usr).Retained {
			t.Errorf("expected %s retained", usr)
		}
	}
}

func TestBareEnumReportsUnreferencedCase(t *testing.T) {
	cfg := config.Default()
	cfg.RetainPublic = true

	result, g := runScenario(t, cfg, occurrences(
		def(index.KindEnum, "s:E", "E", "", "/proj/e.swift", 1).access("public"),
		def(index.KindEnumElement, "s:E.used", "used", "s:E", "/proj/e.swift", 2),
		def(index.KindEnumElement, "s:E.unused", "unused", "s:E", "/proj/e.swift", 3),
		ref(index.KindEnumElement, "s:E.used", "", "/proj/use.swift", 1),
	))

	if got := unreferencedNames(result); len(got) != 1 || got[0] != "unused" {
		t.Fatalf("expected only case unused reported, got %v", got)
	}
	if !declaration(t, g, "s:E.used").Retained {
		t.Error("expected referenced case retained")
	}
}

func TestUnusedProtocolConformance(t *testing.T) {
	cfg := config.Default()
	cfg.RetainPublic = true

	result, g := runScenario(t, cfg, occurrences(
		def(index.KindProtocol, "s:P", "P", "", "/proj/p.swift", 1),
		def(index.KindFunctionMethodInstance, "s:P.m", "m()", "s:P", "/proj/p.swift", 2),
		def(index.KindClass, "s:C", "C", "", "/proj/c.swift", 1).access("public"),
		related(index.KindProtocol, "s:P", "P", "s:C", "/proj/c.swift", 1),
		def(index.KindFunctionMethodInstance, "s:C.m", "m()", "s:C", "/proj/c.swift", 2),
	))

	if !declaration(t, g, "s:C").Retained {
		t.Error("expected C retained via retainPublic")
	}
	for _, usr := range []string{"s:P", "s:P.m", "s:C.m"} {
		if declaration(t, g, usr).Retained {
			t.Errorf("expected %s unused", usr)
		}
	}
	if len(result.Unreferenced) != 3 {
		t.Fatalf("expected 3 unused declarations, got %v", unreferencedNames(result))
	}
}

func TestCrossModuleReferenceRetains(t *testing.T) {
	result, g := runScenario(t, config.Default(), occurrences(
		def(index.KindClass, "s:A", "A", "", "/proj/x/a.swift", 1).module("X").access("public"),
		ref(index.KindClass, "s:A", "", "/proj/y/b.swift", 1).module("Y"),
	))

	if !declaration(t, g, "s:A").Retained {
		t.Error("expected A retained by cross-module reference")
	}
	if len(result.Unreferenced) != 0 {
		t.Fatalf("expected nothing unused, got %v", unreferencedNames(result))
	}
}

func TestOverrideChainRetainsBase(t *testing.T) {
	result, g := runScenario(t, config.Default(), occurrences(
		def(index.KindClass, "s:B", "B", "", "/proj/b.swift", 1),
		def(index.KindFunctionMethodInstance, "s:B.m", "m()", "s:B", "/proj/b.swift", 2),
		def(index.KindClass, "s:S", "S", "", "/proj/s.swift", 1),
		related(index.KindClass, "s:B", "B", "s:S", "/proj/s.swift", 1),
		def(index.KindFunctionMethodInstance, "s:S.m", "m()", "s:S", "/proj/s.swift", 2).mods("override"),
		ref(index.KindFunctionMethodInstance, "s:B.m", "s:S.m", "/proj/s.swift", 3),
		ref(index.KindClass, "s:S", "", "/proj/use.swift", 1),
		ref(index.KindFunctionMethodInstance, "s:S.m", "", "/proj/use.swift", 2),
	))

	for _, usr := range []string{"s:B", "s:B.m", "s:S", "s:S.m"} {
		if !declaration(t, g, usr).Retained {
			t.Errorf("expected %s retained", usr)
		}
	}
	if len(result.Unreferenced) != 0 || len(result.UnusedParameters) != 0 {
		t.Fatalf("expected clean report, got %v / %v", unreferencedNames(result), result.UnusedParameters)
	}
}

func TestAssignOnlyProperty(t *testing.T) {
	fixture := occurrences(
		def(index.KindClass, "s:C", "C", "", "/proj/c.swift", 1),
		def(index.KindVarInstance, "s:C.x", "x", "s:C", "/proj/c.swift", 2).attrs("trivialInit"),
		def(index.KindFunctionConstructor, "s:C.init", "init()", "s:C", "/proj/c.swift", 3),
		ref(index.KindVarInstance, "s:C.x", "s:C.init", "/proj/c.swift", 4).write(),
		ref(index.KindClass, "s:C", "", "/proj/use.swift", 1),
		ref(index.KindFunctionConstructor, "s:C.init", "", "/proj/use.swift", 1),
	)

	result, g := runScenario(t, config.Default(), fixture)
	if !declaration(t, g, "s:C.x").Retained {
		t.Error("expected x retained; assign-only is its own report")
	}
	if !containsName(result.AssignOnly, "x") {
		t.Fatalf("expected x reported assign-only, got %v", result.AssignOnly)
	}
	if containsName(result.Unreferenced, "x") {
		t.Error("assign-only property must not also be reported unused")
	}

	cfg := config.Default()
	cfg.RetainAssignOnlyProperties = true
	result, _ = runScenario(t, cfg, fixture)
	if len(result.AssignOnly) != 0 {
		t.Fatalf("expected suppressed assign-only report, got %v", result.AssignOnly)
	}
}

func TestParameterUsedOnlyInOverride(t *testing.T) {
	result, _ := runScenario(t, config.Default(), occurrences(
		def(index.KindClass, "s:B", "B", "", "/proj/b.swift", 1),
		def(index.KindFunctionMethodInstance, "s:B.m", "m(x:)", "s:B", "/proj/b.swift", 2),
		def(index.KindVarParameter, "s:B.m.x", "x", "s:B.m", "/proj/b.swift", 2),
		def(index.KindClass, "s:S", "S", "", "/proj/s.swift", 1),
		related(index.KindClass, "s:B", "B", "s:S", "/proj/s.swift", 1),
		def(index.KindFunctionMethodInstance, "s:S.m", "m(x:)", "s:S", "/proj/s.swift", 2).mods("override"),
		def(index.KindVarParameter, "s:S.m.x", "x", "s:S.m", "/proj/s.swift", 2),
		ref(index.KindVarParameter, "s:S.m.x", "s:S.m", "/proj/s.swift", 3),
		ref(index.KindFunctionMethodInstance, "s:B.m", "", "/proj/use.swift", 1),
		ref(index.KindFunctionMethodInstance, "s:S.m", "", "/proj/use.swift", 2),
	))

	if containsName(result.UnusedParameters, "x") {
		t.Fatalf("base parameter used by override must be retained, got %v", result.UnusedParameters)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	cfg := config.Default()
	cfg.RetainPublic = true

	fixture := occurrences(
		def(index.KindClass, "s:B", "B", "", "/proj/b.swift", 1),
		def(index.KindFunctionMethodInstance, "s:B.m", "m()", "s:B", "/proj/b.swift", 2),
		def(index.KindClass, "s:S", "S", "", "/proj/s.swift", 1).access("public"),
		related(index.KindClass, "s:B", "B", "s:S", "/proj/s.swift", 1),
		def(index.KindEnum, "s:E", "E", "", "/proj/e.swift", 1),
		def(index.KindEnumElement, "s:E.a", "a", "s:E", "/proj/e.swift", 2),
	)

	first, g := runScenario(t, cfg, fixture)
	second, err := New(cfg).Analyze(g)
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Analyze not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRetainedAncestorsInvariant(t *testing.T) {
	cfg := config.Default()
	cfg.RetainPublic = true

	_, g := runScenario(t, cfg, occurrences(
		def(index.KindClass, "s:Outer", "Outer", "", "/proj/o.swift", 1),
		def(index.KindClass, "s:Outer.Inner", "Inner", "s:Outer", "/proj/o.swift", 2),
		def(index.KindFunctionMethodInstance, "s:Outer.Inner.m", "m()", "s:Outer.Inner", "/proj/o.swift", 3),
		ref(index.KindFunctionMethodInstance, "s:Outer.Inner.m", "", "/proj/use.swift", 1),
	))

	for _, d := range g.Declarations() {
		if !d.Retained {
			continue
		}
		for _, anc := range d.Ancestors() {
			if !anc.Retained {
				t.Errorf("retained %s has unretained ancestor %s", d.USR, anc.USR)
			}
		}
	}
}
