package index

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
)

// SCIP symbol-role bitmasks, per the SCIP spec.
const (
	scipRoleDefinition  = 0x1
	scipRoleWriteAccess = 0x4
)

// SCIPProvider adapts a SCIP protobuf index to the occurrence stream.
//
// SCIP carries less than the native contract: occurrences have no
// attributes, modifiers or accessibility, and symbol kinds are inferred
// from descriptor suffixes. Mapped occurrences default to internal
// accessibility (empty string) and an attribute-free record; structural
// edges come from SymbolInformation relationships flagged IsImplementation.
type SCIPProvider struct {
	module string
	docs   map[string]*scippb.Document
	units  []string
}

// NewSCIPProvider loads a SCIP index file. The module name applies to every
// occurrence; SCIP has no per-symbol module field.
func NewSCIPProvider(path, module string) (*SCIPProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scip index: %w", err)
	}
	var idx scippb.Index
	if err := proto.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse scip index %s: %w", path, err)
	}

	p := &SCIPProvider{
		module: module,
		docs:   make(map[string]*scippb.Document, len(idx.Documents)),
	}
	for _, doc := range idx.Documents {
		p.docs[doc.RelativePath] = doc
		p.units = append(p.units, doc.RelativePath)
	}
	sort.Strings(p.units)
	return p, nil
}

// Units lists document paths in sorted order.
func (p *SCIPProvider) Units(ctx context.Context) ([]string, error) {
	return append([]string(nil), p.units...), nil
}

// Each streams one document's occurrences: definitions first (with related
// edges from implementation relationships), then references attributed to
// the nearest preceding definition in the document.
func (p *SCIPProvider) Each(ctx context.Context, unit string, fn func(Occurrence) error) error {
	doc, ok := p.docs[unit]
	if !ok {
		return fmt.Errorf("unknown unit %q", unit)
	}

	info := make(map[string]*scippb.SymbolInformation, len(doc.Symbols))
	for _, sym := range doc.Symbols {
		info[sym.Symbol] = sym
	}

	// Definitions in range order establish reference containers below.
	var defs []defSite

	for _, occ := range doc.Occurrences {
		if err := ctx.Err(); err != nil {
			return err
		}
		if occ.SymbolRoles&scipRoleDefinition == 0 {
			continue
		}
		line, col := scipPosition(occ.Range)
		sym := info[occ.Symbol]
		base := Occurrence{
			Module: p.module,
			File:   unit,
			Line:   line,
			Column: col,
			Kind:   scipKind(occ.Symbol, sym),
			Name:   scipDisplayName(occ.Symbol, sym),
			USR:    occ.Symbol,
			Role:   RoleDefinition,
		}
		if sym != nil && sym.EnclosingSymbol != "" {
			base.ContainerUSR = sym.EnclosingSymbol
		}
		if err := fn(base); err != nil {
			return err
		}
		defs = append(defs, defSite{line: line, usr: occ.Symbol})

		if sym == nil {
			continue
		}
		for _, rel := range sym.Relationships {
			if !rel.IsImplementation {
				continue
			}
			related := Occurrence{
				Module:       p.module,
				File:         unit,
				Line:         line,
				Column:       col,
				Kind:         scipKind(rel.Symbol, info[rel.Symbol]),
				Name:         scipDisplayName(rel.Symbol, info[rel.Symbol]),
				USR:          rel.Symbol,
				Role:         RoleRelated,
				ContainerUSR: occ.Symbol,
			}
			if err := fn(related); err != nil {
				return err
			}
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].line < defs[j].line })

	for _, occ := range doc.Occurrences {
		if err := ctx.Err(); err != nil {
			return err
		}
		if occ.SymbolRoles&scipRoleDefinition != 0 {
			continue
		}
		line, col := scipPosition(occ.Range)
		ref := Occurrence{
			Module:       p.module,
			File:         unit,
			Line:         line,
			Column:       col,
			Kind:         scipKind(occ.Symbol, info[occ.Symbol]),
			Name:         scipDisplayName(occ.Symbol, info[occ.Symbol]),
			USR:          occ.Symbol,
			Role:         RoleReference,
			ContainerUSR: containerAt(defs, line),
			Write:        occ.SymbolRoles&scipRoleWriteAccess != 0,
		}
		if err := fn(ref); err != nil {
			return err
		}
	}
	return nil
}

type defSite struct {
	line int
	usr  string
}

// containerAt finds the nearest definition at or above the given line.
func containerAt(defs []defSite, line int) string {
	usr := ""
	for _, d := range defs {
		if d.line > line {
			break
		}
		usr = d.usr
	}
	return usr
}

// scipPosition converts a SCIP range ([startLine, startCol, endCol] or
// [startLine, startCol, endLine, endCol], zero-based) to 1-based line/column.
func scipPosition(r []int32) (int, int) {
	if len(r) < 2 {
		return 1, 1
	}
	return int(r[0]) + 1, int(r[1]) + 1
}

// scipKind infers an occurrence kind from the symbol descriptor suffix.
func scipKind(symbol string, sym *scippb.SymbolInformation) Kind {
	desc := symbol
	if i := strings.LastIndex(desc, " "); i >= 0 {
		desc = desc[i+1:]
	}
	enclosed := sym != nil && sym.EnclosingSymbol != ""
	switch {
	case strings.HasSuffix(desc, "()."):
		if enclosed {
			return KindFunctionMethodInstance
		}
		return KindFunctionFree
	case strings.HasSuffix(desc, "#"):
		return KindClass
	case strings.HasSuffix(desc, "/"):
		return KindModule
	case strings.HasSuffix(desc, ")"):
		return KindVarParameter
	default:
		if enclosed {
			return KindVarInstance
		}
		return KindVarGlobal
	}
}

// scipDisplayName prefers the indexer-provided display name, falling back
// to the last descriptor component.
func scipDisplayName(symbol string, sym *scippb.SymbolInformation) string {
	if sym != nil && sym.DisplayName != "" {
		return sym.DisplayName
	}
	name := symbol
	if i := strings.LastIndex(name, " "); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".")
	name = strings.TrimSuffix(name, "()")
	name = strings.TrimSuffix(name, "#")
	if i := strings.LastIndexAny(name, "/#."); i >= 0 && i+1 < len(name) {
		name = name[i+1:]
	}
	return name
}
