package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/runbookops/runbook-agent/internal/report"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// handleSearchRunbooks performs semantic search over the runbook index.
func (s *Server) handleSearchRunbooks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 3)
	if limit <= 0 {
		limit = 3
	}

	results, err := s.index.Query(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The runbooks may not be ingested yet. Run `runbook ingest` first."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleAnalyzeRunbook scores one runbook, or the whole fleet when no path
// is given.
func (s *Server) handleAnalyzeRunbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if path := request.GetString("path", ""); path != "" {
		rb, err := s.source.Get(ctx, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading runbook %q: %v", path, err)), nil
		}
		return mcp.NewToolResultText(report.Markdown(s.scorer.Score(rb))), nil
	}

	books, err := s.source.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading runbooks: %v", err)), nil
	}
	if len(books) == 0 {
		return mcp.NewToolResultText("No runbooks found in the runbook directory."), nil
	}

	reports := make([]score.Report, 0, len(books))
	for _, rb := range books {
		reports = append(reports, s.scorer.Score(rb))
	}
	return mcp.NewToolResultText(report.FleetMarkdown(reports)), nil
}

// handleAlert runs one chat turn through the incident workflow. The
// returned session id must be echoed back to answer confirmations.
func (s *Server) handleAlert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}
	sessionID := request.GetString("session_id", "")

	turn, err := s.bot.Process(ctx, sessionID, message)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}

	var sb strings.Builder
	if turn.SessionID != "" {
		fmt.Fprintf(&sb, "session_id: %s\nstate: %s\n\n", turn.SessionID, turn.State)
	}
	sb.WriteString(turn.Response)
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults converts search results into a text format suitable
// for agent consumption.
func formatSearchResults(results []vectordb.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "Runbook: %s", r.Entry.Metadata.Title)
		if r.Entry.Metadata.Section != "" {
			fmt.Fprintf(&sb, " / %s", r.Entry.Metadata.Section)
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "Path: %s\n", r.Entry.Metadata.RunbookPath)
		if r.Entry.Metadata.Severity != "" {
			fmt.Fprintf(&sb, "Severity: %s\n", r.Entry.Metadata.Severity)
		}
		fmt.Fprintf(&sb, "Similarity: %.2f\n\n", r.Similarity)
		sb.WriteString(strings.TrimSpace(r.Entry.Content))
		sb.WriteString("\n")
	}
	return sb.String()
}
