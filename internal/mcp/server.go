// Package mcp exposes Ninho's memory over the Model Context Protocol so
// editor agents can query PRDs, prompt history, summaries, and learnings
// without shelling out to the CLI.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/db"
	"github.com/ninho-ai/ninho/internal/storage"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"memory_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"memory_status": {
		def:     statusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStatus },
	},
	"prd_fetch": {
		def:     prdFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePRDFetch },
	},
	"learnings_recent": {
		def:     learningsRecentToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLearningsRecent },
	},
	"summary_fetch": {
		def:     summaryFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummaryFetch },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with Ninho tools registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ninho",
		version,
		server.WithToolCapabilities(true),
	)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server on stdio. The search index is rebuilt from
// the markdown files up front so every query sees current data.
func Run(project *storage.ProjectStorage, global *storage.Storage, cfg *config.Config, version string) error {
	database, err := db.Open(project.IndexDBPath())
	if err != nil {
		return err
	}
	defer database.Close()

	if _, err := db.Rebuild(database, project, global); err != nil {
		return err
	}

	h := NewHandlers(database, project, global, cfg)
	return server.ServeStdio(NewServer(h, version))
}
