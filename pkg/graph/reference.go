package graph

import "github.com/vestige-dev/vestige/pkg/index"

// Reference is an edge from a use site to a referenced symbol. A reference
// may itself own declarations and nested references (rare, e.g. implicit
// declarations materialized under a use site).
type Reference struct {
	ID uint32

	Kind     index.Kind
	Name     string
	USR      string
	Location index.Location

	Parent       Parent
	Declarations []*Declaration
	References   []*Reference

	// IsRelated distinguishes structural edges (superclass, conformance,
	// typealias target) from ordinary uses.
	IsRelated bool

	// IsWrite marks the use as an assignment to the symbol.
	IsWrite bool
}
