package graph

import (
	"sort"

	"github.com/vestige-dev/vestige/pkg/index"
)

// Declaration is a defined symbol in the graph. Children, references and
// related edges are owned; Parent is a back-edge.
type Declaration struct {
	// ID is a dense identifier assigned at insertion, usable as a bitmap
	// index.
	ID uint32

	Kind     index.Kind
	Name     string
	USR      string
	Module   string
	Location index.Location

	Accessibility         index.Accessibility
	ExplicitAccessibility bool

	Attributes map[string]bool
	Modifiers  map[string]bool

	Parent       Parent
	Declarations []*Declaration
	References   []*Reference
	Related      []*Reference

	CommentCommands []CommentCommand

	// IsImplicit marks compiler-synthesized declarations.
	IsImplicit bool

	// IsExternalWitness marks members that may satisfy a requirement of a
	// protocol declared outside the analyzed modules.
	IsExternalWitness bool

	// Overrides links an override to the nearest overridden base member;
	// OverriddenBy is the reverse direction.
	Overrides    *Declaration
	OverriddenBy []*Declaration

	// Retained is the analyzer's output.
	Retained bool

	// UnusedParameters is the analyzer-computed subset of parameter
	// children never used by the function body or its relatives.
	UnusedParameters []*Declaration
}

// HasAttribute reports whether an attribute such as "@objc" is present.
func (d *Declaration) HasAttribute(name string) bool { return d.Attributes[name] }

// HasModifier reports whether a modifier such as "override" is present.
func (d *Declaration) HasModifier(name string) bool { return d.Modifiers[name] }

// HasCommentCommand reports whether the given directive is attached.
func (d *Declaration) HasCommentCommand(c CommentCommand) bool {
	for _, cc := range d.CommentCommands {
		if cc == c {
			return true
		}
	}
	return false
}

// Ancestors returns enclosing declarations from nearest outward.
func (d *Declaration) Ancestors() []*Declaration {
	var out []*Declaration
	for p := d.Parent.NearestDecl(); p != nil; p = p.Parent.NearestDecl() {
		out = append(out, p)
	}
	return out
}

// ChildrenOfKind returns direct children matching any of the given kinds.
func (d *Declaration) ChildrenOfKind(kinds ...index.Kind) []*Declaration {
	var out []*Declaration
	for _, c := range d.Declarations {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Parameters returns the function's parameter children in source order.
func (d *Declaration) Parameters() []*Declaration {
	params := d.ChildrenOfKind(index.KindVarParameter)
	sort.Slice(params, func(i, j int) bool {
		return params[i].Location.Before(params[j].Location)
	})
	return params
}

// IsEnclosedBy reports whether other appears on d's ancestor chain.
func (d *Declaration) IsEnclosedBy(other *Declaration) bool {
	for p := d.Parent.NearestDecl(); p != nil; p = p.Parent.NearestDecl() {
		if p == other {
			return true
		}
	}
	return false
}

// RelatedUSRs returns the usrs of structural edges (superclass,
// conformances, alias targets).
func (d *Declaration) RelatedUSRs() []string {
	out := make([]string, 0, len(d.Related))
	for _, r := range d.Related {
		out = append(out, r.USR)
	}
	return out
}
