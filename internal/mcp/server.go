// Package mcp exposes runbook search, analysis and alert handling as MCP
// tools over stdio, so coding agents and chat clients can drive the agent.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/runbookops/runbook-agent/internal/chatbot"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes runbook tools.
type Server struct {
	index  vectordb.Index
	source chatbot.RunbookSource
	scorer *score.Scorer
	bot    *chatbot.Chatbot
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(index vectordb.Index, source chatbot.RunbookSource, scorer *score.Scorer, bot *chatbot.Chatbot) *Server {
	s := &Server{
		index:  index,
		source: source,
		scorer: scorer,
		bot:    bot,
	}

	s.mcp = server.NewMCPServer(
		"runbook-agent",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchRunbooksTool, s.handleSearchRunbooks)
	s.mcp.AddTool(analyzeRunbookTool, s.handleAnalyzeRunbook)
	s.mcp.AddTool(handleAlertTool, s.handleAlert)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
