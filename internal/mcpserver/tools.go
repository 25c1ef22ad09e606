package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/vestige-dev/vestige/internal/service/analysis"
	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/index"
)

// ScanInput configures the scan tool.
type ScanInput struct {
	IndexStore string `json:"index_store,omitempty" jsonschema:"Path to a JSON-Lines index store directory."`
	SCIPIndex  string `json:"scip_index,omitempty" jsonschema:"Path to a SCIP index file. Takes precedence over index_store when both are set."`
	Module     string `json:"module,omitempty" jsonschema:"Module name applied to SCIP occurrences."`

	RetainPublic        bool     `json:"retain_public,omitempty" jsonschema:"Seed-retain public and open declarations."`
	RetainObjcAnnotated bool     `json:"retain_objc_annotated,omitempty" jsonschema:"Seed-retain @objc annotated declarations."`
	EntryPointFilenames []string `json:"entry_point_filenames,omitempty" jsonschema:"File basenames treated as entry points."`
}

func handleScan(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, any, error) {
	cfg := config.Default()
	cfg.RetainPublic = input.RetainPublic
	cfg.RetainObjcAnnotated = input.RetainObjcAnnotated
	if len(input.EntryPointFilenames) > 0 {
		cfg.EntryPointFilenames = input.EntryPointFilenames
		cfg.EntryPointsExplicit = true
	}

	var provider index.Provider
	var err error
	switch {
	case input.SCIPIndex != "":
		provider, err = index.NewSCIPProvider(input.SCIPIndex, input.Module)
	case input.IndexStore != "":
		provider, err = index.NewStoreProvider(input.IndexStore)
	default:
		return toolError("one of index_store or scip_index is required")
	}
	if err != nil {
		return toolError(err.Error())
	}

	svc := analysis.New(analysis.WithConfig(cfg))
	scan, err := svc.Scan(ctx, provider, analysis.ScanOptions{})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(scan.Result)
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(out)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}
