// Package mcpserver exposes the scan pipeline over the Model Context
// Protocol for editor and agent integration.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the scan tool.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "vestige",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "scan",
		Description: "Scan an index store for unreferenced declarations, " +
			"assign-only properties and unused parameters. Point it at a " +
			"JSON-Lines index store directory or a SCIP index file.",
	}, handleScan)
}
