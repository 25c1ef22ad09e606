package retention

import (
	"strings"

	"github.com/vestige-dev/vestige/pkg/graph"
	"github.com/vestige-dev/vestige/pkg/index"
)

// propertyWrapperMembers are the synthesized surface of a @propertyWrapper
// type.
var propertyWrapperMembers = map[string]bool{
	"wrappedValue":        true,
	"projectedValue":      true,
	"init(wrappedValue:)": true,
}

// seed applies the direct retention rules. Mutator-marked declarations
// (entry files, external witnesses, CodingKeys) enter the worklist here as
// well, so their consequences propagate.
func (r *run) seed() {
	for _, d := range r.g.Declarations() {
		if d.Retained {
			d.Retained = false
			r.retain(d)
			continue
		}
		if r.isSeed(d) {
			r.retain(d)
		}
	}
}

func (r *run) isSeed(d *graph.Declaration) bool {
	// Top-level code in a module executes unconditionally; the synthetic
	// module containers anchor references made outside any declaration.
	if d.Kind == index.KindModule {
		return true
	}

	// Process entry point.
	if d.HasAttribute("@main") {
		return true
	}

	if r.cfg.RetainPublic && d.Accessibility.IsPublicOrOpen() {
		return true
	}

	if r.cfg.RetainObjcAnnotated && r.isObjcRetained(d) {
		return true
	}

	if r.isTestHarnessCoupled(d) {
		return true
	}

	// Synthesized surface of property wrappers.
	if propertyWrapperMembers[d.Name] {
		if owner := d.Parent.NearestDecl(); owner != nil && owner.HasAttribute("@propertyWrapper") {
			return true
		}
	}

	if r.cfg.RetainKnownFailures && r.isKnownFailure(d) {
		return true
	}

	return false
}

// isObjcRetained: the declaration itself carries @objc or @objcMembers, or
// it is a member of an @objcMembers type. Members of a type annotated only
// @objc are not implied.
func (r *run) isObjcRetained(d *graph.Declaration) bool {
	if d.HasAttribute("@objc") || d.HasAttribute("@objcMembers") {
		return true
	}
	owner := d.Parent.NearestDecl()
	return owner != nil && owner.HasAttribute("@objcMembers")
}

// isTestHarnessCoupled retains subclasses of configured foreign test base
// classes, and their test/setUp/tearDown methods.
func (r *run) isTestHarnessCoupled(d *graph.Declaration) bool {
	switch {
	case d.Kind == index.KindClass:
		return r.inheritsExternalTestBase(d, make(map[string]bool))
	case d.Kind.IsMethod():
		if !isTestMethodName(d.Name) {
			return false
		}
		owner := d.Parent.NearestDecl()
		return owner != nil && owner.Kind == index.KindClass &&
			r.inheritsExternalTestBase(owner, make(map[string]bool))
	}
	return false
}

func (r *run) inheritsExternalTestBase(c *graph.Declaration, visited map[string]bool) bool {
	if visited[c.USR] {
		return false
	}
	visited[c.USR] = true
	for _, rel := range c.Related {
		if r.cfg.IsExternalTestBaseClass(rel.USR) {
			return true
		}
		if target, ok := r.g.DeclarationByUSR(rel.USR); ok && target.Kind == index.KindClass {
			if r.inheritsExternalTestBase(target, visited) {
				return true
			}
		}
	}
	return false
}

func isTestMethodName(name string) bool {
	if name == "setUp" || name == "setUp()" || name == "tearDown" || name == "tearDown()" {
		return true
	}
	return strings.HasPrefix(name, "test")
}

// isKnownFailure widens retention around the documented analysis gaps when
// the gate is on: lazy properties, constructors of literal-convertible
// types, and accessors declared in protocol extensions.
func (r *run) isKnownFailure(d *graph.Declaration) bool {
	if d.Kind.IsVariable() && d.HasModifier("lazy") {
		return true
	}
	if d.Kind == index.KindFunctionConstructor {
		if owner := d.Parent.NearestDecl(); owner != nil {
			for _, rel := range owner.Related {
				if strings.HasPrefix(rel.Name, "ExpressibleBy") {
					return true
				}
			}
		}
	}
	if d.Kind.IsAccessor() {
		if owner := d.Parent.NearestDecl(); owner != nil {
			if v := owner.Parent.NearestDecl(); v != nil && v.Kind == index.KindExtensionProtocol {
				return true
			}
		}
	}
	return false
}
