// Package graph holds the in-memory source graph: declarations, references
// and the secondary indices the indexer, mutators and analyzer work over.
package graph

import "github.com/vestige-dev/vestige/pkg/index"

// Parent is the tagged back-edge from an entity to its enclosing entity:
// a declaration, a reference, or nothing (top level). It is never an
// owning link.
type Parent struct {
	decl *Declaration
	ref  *Reference
}

// DeclParent wraps a declaration parent.
func DeclParent(d *Declaration) Parent { return Parent{decl: d} }

// RefParent wraps a reference parent.
func RefParent(r *Reference) Parent { return Parent{ref: r} }

// IsZero reports whether there is no parent.
func (p Parent) IsZero() bool { return p.decl == nil && p.ref == nil }

// Decl returns the declaration parent, or nil.
func (p Parent) Decl() *Declaration { return p.decl }

// Ref returns the reference parent, or nil.
func (p Parent) Ref() *Reference { return p.ref }

// Location returns the parent's position, or the zero location.
func (p Parent) Location() index.Location {
	switch {
	case p.decl != nil:
		return p.decl.Location
	case p.ref != nil:
		return p.ref.Location
	}
	return index.Location{}
}

// Kind returns the parent's kind, or the empty kind.
func (p Parent) Kind() index.Kind {
	switch {
	case p.decl != nil:
		return p.decl.Kind
	case p.ref != nil:
		return p.ref.Kind
	}
	return ""
}

// USR returns the parent's symbol id, or the empty string.
func (p Parent) USR() string {
	switch {
	case p.decl != nil:
		return p.decl.USR
	case p.ref != nil:
		return p.ref.USR
	}
	return ""
}

// NearestDecl walks parents until it finds an enclosing declaration,
// stepping through intermediate references.
func (p Parent) NearestDecl() *Declaration {
	for !p.IsZero() {
		if p.decl != nil {
			return p.decl
		}
		p = p.ref.Parent
	}
	return nil
}

// CommentCommand is a parsed reviewer directive attached to a declaration.
type CommentCommand int

const (
	// CommandIgnore excludes the declaration and its descendants from
	// unused reporting.
	CommandIgnore CommentCommand = iota
	// CommandIgnoreParameters excludes a function's unused parameters.
	CommandIgnoreParameters
	// CommandIgnoreAll excludes everything from the directive to the end
	// of the file.
	CommandIgnoreAll
)

// String returns the directive suffix form.
func (c CommentCommand) String() string {
	switch c {
	case CommandIgnoreParameters:
		return "ignore:parameters"
	case CommandIgnoreAll:
		return "ignore:all"
	default:
		return "ignore"
	}
}
