package index

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// occurrenceSchema is the wire contract for one index-store record.
const occurrenceSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["module", "file", "line", "column", "kind", "usr", "role"],
  "properties": {
    "module": {"type": "string", "minLength": 1},
    "file": {"type": "string", "minLength": 1},
    "line": {"type": "integer", "minimum": 1},
    "column": {"type": "integer", "minimum": 1},
    "kind": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "usr": {"type": "string", "minLength": 1},
    "role": {"enum": ["def", "ref", "related"]},
    "container_usr": {"type": "string"},
    "attributes": {"type": "array", "items": {"type": "string"}},
    "modifiers": {"type": "array", "items": {"type": "string"}},
    "accessibility": {"enum": ["private", "fileprivate", "internal", "public", "open"]},
    "implicit": {"type": "boolean"},
    "write": {"type": "boolean"}
  },
  "additionalProperties": false
}`

type jsonlRecord struct {
	Module        string   `json:"module"`
	File          string   `json:"file"`
	Line          int      `json:"line"`
	Column        int      `json:"column"`
	Kind          string   `json:"kind"`
	Name          string   `json:"name"`
	USR           string   `json:"usr"`
	Role          string   `json:"role"`
	ContainerUSR  string   `json:"container_usr"`
	Attributes    []string `json:"attributes"`
	Modifiers     []string `json:"modifiers"`
	Accessibility string   `json:"accessibility"`
	Implicit      bool     `json:"implicit"`
	Write         bool     `json:"write"`
}

// StoreProvider reads a directory of JSON-Lines unit files, one occurrence
// record per line. Unit names are file basenames without the .jsonl
// extension; units list in sorted order so the stream is stable.
type StoreProvider struct {
	dir    string
	schema *jsonschema.Schema
}

// NewStoreProvider opens an index-store directory.
func NewStoreProvider(dir string) (*StoreProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open index store: %s is not a directory", dir)
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(occurrenceSchema))
	if err != nil {
		return nil, fmt.Errorf("parse occurrence schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("occurrence.json", doc); err != nil {
		return nil, fmt.Errorf("compile occurrence schema: %w", err)
	}
	schema, err := compiler.Compile("occurrence.json")
	if err != nil {
		return nil, fmt.Errorf("compile occurrence schema: %w", err)
	}

	return &StoreProvider{dir: dir, schema: schema}, nil
}

// Units lists the unit files in the store.
func (p *StoreProvider) Units(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("list index store: %w", err)
	}
	var units []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		units = append(units, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	sort.Strings(units)
	return units, nil
}

// Each streams the occurrences of one unit file.
func (p *StoreProvider) Each(ctx context.Context, unit string, fn func(Occurrence) error) error {
	path := filepath.Join(p.dir, unit+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open unit %s: %w", unit, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		inst, err := jsonschema.UnmarshalJSON(strings.NewReader(line))
		if err != nil {
			return fmt.Errorf("unit %s line %d: %w", unit, lineNo, err)
		}
		if err := p.schema.Validate(inst); err != nil {
			return fmt.Errorf("unit %s line %d: %w", unit, lineNo, err)
		}

		var rec jsonlRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return fmt.Errorf("unit %s line %d: %w", unit, lineNo, err)
		}
		occ, err := rec.occurrence()
		if err != nil {
			return fmt.Errorf("unit %s line %d: %w", unit, lineNo, err)
		}
		if err := fn(occ); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read unit %s: %w", unit, err)
	}
	return nil
}

func (r jsonlRecord) occurrence() (Occurrence, error) {
	kind, ok := ParseKind(r.Kind)
	if !ok {
		return Occurrence{}, fmt.Errorf("unknown kind %q", r.Kind)
	}
	role, ok := ParseRole(r.Role)
	if !ok {
		return Occurrence{}, fmt.Errorf("unknown role %q", r.Role)
	}
	return Occurrence{
		Module:        r.Module,
		File:          r.File,
		Line:          r.Line,
		Column:        r.Column,
		Kind:          kind,
		Name:          r.Name,
		USR:           r.USR,
		Role:          role,
		ContainerUSR:  r.ContainerUSR,
		Attributes:    r.Attributes,
		Modifiers:     r.Modifiers,
		Accessibility: r.Accessibility,
		Implicit:      r.Implicit,
		Write:         r.Write,
	}, nil
}
