package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/runbookops/runbook-agent/internal/chatbot"
	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// fixedIndex serves canned search results.
type fixedIndex struct {
	results []vectordb.SearchResult
}

func (f *fixedIndex) Upsert(context.Context, *runbook.Runbook, string) error { return nil }
func (f *fixedIndex) Query(context.Context, string, int) ([]vectordb.SearchResult, error) {
	return f.results, nil
}
func (f *fixedIndex) DeleteRunbook(context.Context, string) error { return nil }
func (f *fixedIndex) Persist(context.Context, string) error       { return nil }
func (f *fixedIndex) Load(context.Context, string) error          { return nil }
func (f *fixedIndex) Count() int                                  { return len(f.results) }

type memSource struct {
	books map[string]*runbook.Runbook
}

func (m *memSource) List(context.Context) ([]*runbook.Runbook, error) {
	var out []*runbook.Runbook
	for _, rb := range m.books {
		out = append(out, rb)
	}
	return out, nil
}

func (m *memSource) Get(_ context.Context, path string) (*runbook.Runbook, error) {
	rb, ok := m.books[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return rb, nil
}

func newTestMCPServer(t *testing.T) *Server {
	t.Helper()
	rb := runbook.Parse("---\ntitle: Disk Pressure\nseverity: medium\n---\n## Diagnosis\n\nCheck volumes.\n")
	rb.Path = "disk_pressure.md"
	src := &memSource{books: map[string]*runbook.Runbook{rb.Path: rb}}
	idx := &fixedIndex{results: []vectordb.SearchResult{{
		Entry: vectordb.Entry{
			ID:      "disk_pressure.md#Diagnosis",
			Content: "Check volumes.",
			Metadata: vectordb.EntryMetadata{
				RunbookPath: "disk_pressure.md",
				Section:     "Diagnosis",
				Title:       "Disk Pressure",
				Severity:    "medium",
			},
		},
		Similarity: 0.88,
	}}}
	scorer := score.New(score.DefaultRubric())
	bot := chatbot.New(router.Default(), idx, scorer, src, session.NewMemoryStore(), nil, chatbot.DefaultConfig())
	return NewServer(idx, src, scorer, bot)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestSearchRunbooksTool(t *testing.T) {
	s := newTestMCPServer(t)

	res, err := s.handleSearchRunbooks(context.Background(), callRequest("search_runbooks", map[string]any{
		"query": "disk filling up",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Disk Pressure / Diagnosis") {
		t.Errorf("missing runbook/section line:\n%s", text)
	}
	if !strings.Contains(text, "Path: disk_pressure.md") {
		t.Errorf("missing path line:\n%s", text)
	}
}

func TestSearchRunbooksRequiresQuery(t *testing.T) {
	s := newTestMCPServer(t)

	res, err := s.handleSearchRunbooks(context.Background(), callRequest("search_runbooks", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for a missing query")
	}
}

func TestAnalyzeRunbookToolSingle(t *testing.T) {
	s := newTestMCPServer(t)

	res, err := s.handleAnalyzeRunbook(context.Background(), callRequest("analyze_runbook", map[string]any{
		"path": "disk_pressure.md",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "# Runbook Health: Disk Pressure") {
		t.Errorf("missing report heading:\n%s", text)
	}
}

func TestAnalyzeRunbookToolFleet(t *testing.T) {
	s := newTestMCPServer(t)

	res, err := s.handleAnalyzeRunbook(context.Background(), callRequest("analyze_runbook", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "# Runbook Fleet Health") {
		t.Errorf("missing fleet heading:\n%s", text)
	}
}

func TestAnalyzeRunbookToolMissingPath(t *testing.T) {
	s := newTestMCPServer(t)

	res, err := s.handleAnalyzeRunbook(context.Background(), callRequest("analyze_runbook", map[string]any{
		"path": "missing.md",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for a missing runbook")
	}
}

func TestHandleAlertTool(t *testing.T) {
	s := newTestMCPServer(t)

	res, err := s.handleAlert(context.Background(), callRequest("handle_alert", map[string]any{
		"message": "disk alert: volume is filling up",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "session_id:") {
		t.Errorf("alert response should carry a session id:\n%s", text)
	}
	if !strings.Contains(text, "Disk Pressure") {
		t.Errorf("alert response should reference the matched runbook:\n%s", text)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{searchRunbooksTool, "search_runbooks"},
		{analyzeRunbookTool, "analyze_runbook"},
		{handleAlertTool, "handle_alert"},
	}
	for _, tt := range tests {
		if tt.tool.Name != tt.wantName {
			t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
		}
	}
}
