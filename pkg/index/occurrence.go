package index

import (
	"context"
	"errors"
	"fmt"
)

// Role is the part an occurrence plays at its location.
type Role string

const (
	// RoleDefinition introduces a declaration.
	RoleDefinition Role = "def"
	// RoleReference is an ordinary use of a symbol.
	RoleReference Role = "ref"
	// RoleRelated is a structural edge: superclass, conformance,
	// typealias target.
	RoleRelated Role = "related"
)

// ParseRole validates a provider role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDefinition, RoleReference, RoleRelated:
		return Role(s), true
	}
	return "", false
}

// Occurrence is one record from an index provider: a symbol observed at a
// location in some role. Field presence mirrors the wire contract; Kind and
// Role are validated at decode time, Accessibility stays in string form
// (empty when the provider did not report one) and is interpreted by the
// indexer.
type Occurrence struct {
	Module        string
	File          string
	Line          int
	Column        int
	Kind          Kind
	Name          string
	USR           string
	Role          Role
	ContainerUSR  string
	Attributes    []string
	Modifiers     []string
	Accessibility string
	Implicit      bool

	// Write marks a reference occurrence as an assignment to the symbol
	// rather than a read.
	Write bool
}

// Location returns the occurrence position.
func (o Occurrence) Location() Location {
	return Location{File: o.File, Line: o.Line, Column: o.Column}
}

// Provider yields raw occurrence records for a set of analyzed modules.
//
// Contract: every reference occurrence's ContainerUSR resolves to a
// definition emitted in the same run, or is empty (synthetic top-level
// container). The stream is stable: identical input produces an identical
// stream. Units may be read in parallel by the consumer.
type Provider interface {
	// Units lists the translation units of the index in stable order.
	Units(ctx context.Context) ([]string, error)

	// Each streams the occurrences of one unit in emission order.
	// Returning an error from fn aborts the stream.
	Each(ctx context.Context, unit string, fn func(Occurrence) error) error
}

// ErrIndexInconsistency marks a provider contract violation: a dangling
// container, or a duplicate usr with conflicting kinds. Fatal; wrapping
// errors carry the offending record.
var ErrIndexInconsistency = errors.New("index inconsistency")

// Inconsistency builds a fatal provider-contract error for a record.
func Inconsistency(o Occurrence, format string, args ...any) error {
	return fmt.Errorf("%w at %s (usr %s): %s",
		ErrIndexInconsistency, o.Location(), o.USR, fmt.Sprintf(format, args...))
}
