// Package mcp exposes the bench as Model Context Protocol tools.
package mcp

import (
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/llm-bench/internal/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerSuiteTools(s, sc); err != nil {
		return err
	}
	if err := registerRunTools(s, sc); err != nil {
		return err
	}
	return nil
}
