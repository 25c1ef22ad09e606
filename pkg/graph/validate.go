package graph

import (
	"fmt"

	"github.com/vestige-dev/vestige/pkg/index"
)

// Validate checks the structural invariants the passes rely on. It is not
// run on every mutation; the pipeline invokes it between passes when debug
// checking is enabled.
func Validate(g *Graph) error {
	seen := make(map[string]*Declaration)
	for _, d := range g.Declarations() {
		key := d.Module + "\x00" + d.USR
		if prev, ok := seen[key]; ok && prev.Kind != d.Kind {
			return fmt.Errorf("usr %s in module %s has conflicting kinds %s and %s",
				d.USR, d.Module, prev.Kind, d.Kind)
		}
		seen[key] = d

		if err := validateParentChain(d); err != nil {
			return err
		}

		if d.Kind.IsAccessor() {
			p := d.Parent.NearestDecl()
			if p == nil || !p.Kind.IsVariable() {
				return fmt.Errorf("accessor %s at %s is not parented to a variable", d.Name, d.Location)
			}
		}

		if d.Kind.IsExtension() {
			for _, c := range d.Declarations {
				if c.Accessibility > d.Accessibility {
					return fmt.Errorf("extension member %s at %s exceeds extension accessibility %s",
						c.Name, c.Location, d.Accessibility)
				}
			}
		}
	}

	for _, r := range g.References() {
		target, ok := g.DeclarationByUSR(r.USR)
		if !ok {
			continue // external symbol
		}
		if target.Kind.ReferenceEquivalent() != r.Kind {
			return fmt.Errorf("reference at %s has kind %s but target %s is %s",
				r.Location, r.Kind, r.USR, target.Kind)
		}
	}

	return nil
}

func validateParentChain(d *Declaration) error {
	slow, fast := d.Parent, d.Parent
	for {
		if fast.IsZero() {
			return nil
		}
		if fast.Kind() == index.KindModule {
			return nil
		}
		fast = parentOf(fast)
		if fast.IsZero() {
			return nil
		}
		fast = parentOf(fast)
		slow = parentOf(slow)
		if !slow.IsZero() && slow == fast {
			return fmt.Errorf("parent cycle through %s", d.Location)
		}
	}
}

func parentOf(p Parent) Parent {
	switch {
	case p.Decl() != nil:
		return p.Decl().Parent
	case p.Ref() != nil:
		return p.Ref().Parent
	}
	return Parent{}
}
