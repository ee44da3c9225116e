package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchRunbooksTool defines the search_runbooks MCP tool.
var searchRunbooksTool = mcp.NewTool("search_runbooks",
	mcp.WithDescription("Search the ingested runbooks semantically. Returns the best-matching runbook sections with their source paths."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query, e.g. an alert description"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 3)"),
	),
)

// analyzeRunbookTool defines the analyze_runbook MCP tool.
var analyzeRunbookTool = mcp.NewTool("analyze_runbook",
	mcp.WithDescription("Score a runbook's health across completeness, structure, safety and clarity, with findings and recommendations. Omit path to analyze the whole fleet."),
	mcp.WithString("path",
		mcp.Description("Runbook path relative to the runbook directory; omit for a fleet summary"),
	),
)

// handleAlertTool defines the handle_alert MCP tool.
var handleAlertTool = mcp.NewTool("handle_alert",
	mcp.WithDescription("Run an alert through the incident workflow: retrieve the matching runbook and walk its remediation steps. Destructive commands require a follow-up call confirming with session_id."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The alert text, or a confirmation reply (yes/no) when session_id is set"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session id from a previous call, used to answer a pending confirmation"),
	),
)
