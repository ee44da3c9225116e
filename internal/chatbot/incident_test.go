package chatbot

import (
	"context"
	"strings"
	"testing"

	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// incidentFixture wires a bot around the latency runbook with a
// whole-document retrieval hit and an inspectable session store.
func incidentFixture(t *testing.T) (*Chatbot, *session.MemoryStore) {
	t.Helper()
	rb := runbook.Parse(latencyRunbook)
	rb.Path = "runbooks/database_latency.md"
	src := &fakeSource{books: map[string]*runbook.Runbook{rb.Path: rb}}
	idx := &fakeIndex{results: []vectordb.SearchResult{wholeDocResult(rb.Path, "Database Latency High")}}
	store := session.NewMemoryStore()
	bot := New(router.Default(), idx, score.New(score.DefaultRubric()), src, store, nil, DefaultConfig())
	return bot, store
}

func TestIncidentGatesDestructiveCommand(t *testing.T) {
	bot, _ := incidentFixture(t)

	turn, err := bot.Process(context.Background(), "", "database alert: latency is high on replica_id=db-replica-2")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if turn.Mode != router.ModeIncident {
		t.Fatalf("mode = %s, want incident", turn.Mode)
	}
	if turn.State != session.StateAwaitingConfirmation {
		t.Fatalf("state = %s, want awaiting_confirmation", turn.State)
	}
	if turn.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if !strings.Contains(turn.Response, "pg-pool remove db-replica-2") {
		t.Errorf("prompt should quote the substituted command, got:\n%s", turn.Response)
	}
	if !strings.Contains(turn.Response, "destructive") {
		t.Errorf("prompt should say why the command is gated, got:\n%s", turn.Response)
	}
	if !strings.Contains(turn.Response, "pg-pool add db-replica-2") {
		t.Errorf("prompt should include the rollback path, got:\n%s", turn.Response)
	}
}

func TestIncidentApprovalAdvancesAndCloses(t *testing.T) {
	bot, store := incidentFixture(t)
	ctx := context.Background()

	turn, err := bot.Process(ctx, "", "database alert: latency is high on replica_id=db-replica-2")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	turn, err = bot.Process(ctx, turn.SessionID, "yes")
	if err != nil {
		t.Fatalf("confirmation turn: %v", err)
	}
	if turn.State != session.StateClosed {
		t.Fatalf("state = %s, want closed", turn.State)
	}
	if !strings.Contains(turn.Response, "Matched runbook: Database Latency High") {
		t.Errorf("final response missing runbook reference:\n%s", turn.Response)
	}
	if !strings.Contains(turn.Response, "systemctl restart postgresql@db-replica-2") {
		t.Errorf("final response should list the remediation commands:\n%s", turn.Response)
	}

	decisions, err := store.Decisions(ctx, turn.SessionID)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	if !decisions[0].Approved {
		t.Error("decision should be recorded as approved")
	}
	if !strings.Contains(decisions[0].Command, "pg-pool remove") {
		t.Errorf("decision should record the gated command, got %q", decisions[0].Command)
	}
}

func TestIncidentDeclineClosesSession(t *testing.T) {
	bot, store := incidentFixture(t)
	ctx := context.Background()

	turn, err := bot.Process(ctx, "", "database alert: latency is high on replica_id=db-replica-2")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	turn, err = bot.Process(ctx, turn.SessionID, "no")
	if err != nil {
		t.Fatalf("confirmation turn: %v", err)
	}
	if turn.State != session.StateClosed {
		t.Fatalf("state = %s, want closed", turn.State)
	}
	if !strings.Contains(turn.Response, "won't run") {
		t.Errorf("decline should acknowledge the skipped command:\n%s", turn.Response)
	}

	decisions, err := store.Decisions(ctx, turn.SessionID)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Approved {
		t.Fatalf("expected one declined decision, got %+v", decisions)
	}
}

func TestIncidentAmbiguousReplyKeepsWaiting(t *testing.T) {
	bot, store := incidentFixture(t)
	ctx := context.Background()

	turn, err := bot.Process(ctx, "", "database alert: latency is high on replica_id=db-replica-2")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	id := turn.SessionID

	turn, err = bot.Process(ctx, id, "hmm, what does that command do?")
	if err != nil {
		t.Fatalf("ambiguous turn: %v", err)
	}
	if turn.State != session.StateAwaitingConfirmation {
		t.Fatalf("state = %s, ambiguous reply must not advance", turn.State)
	}
	if !strings.Contains(turn.Response, "explicit yes or no") {
		t.Errorf("expected a clarification request:\n%s", turn.Response)
	}

	decisions, err := store.Decisions(ctx, id)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(decisions) != 0 {
		t.Fatalf("ambiguous reply must not record a decision, got %d", len(decisions))
	}

	// An explicit approval afterwards still works.
	turn, err = bot.Process(ctx, id, "yes")
	if err != nil {
		t.Fatalf("approval turn: %v", err)
	}
	if turn.State != session.StateClosed {
		t.Fatalf("state = %s, want closed after approval", turn.State)
	}
}

func TestIncidentSurfacesMissingPlaceholders(t *testing.T) {
	bot, _ := incidentFixture(t)
	ctx := context.Background()

	turn, err := bot.Process(ctx, "", "database alert: replication latency is spiking")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if turn.State != session.StateAwaitingConfirmation {
		t.Fatalf("state = %s, want awaiting_confirmation", turn.State)
	}
	if !strings.Contains(turn.Response, "replica_id") {
		t.Errorf("prompt should name the unresolved placeholder:\n%s", turn.Response)
	}
	if !strings.Contains(turn.Response, "{{replica_id}}") {
		t.Errorf("unresolved placeholder must stay in the command text:\n%s", turn.Response)
	}

	// The approval reply supplies the value; it is applied everywhere.
	turn, err = bot.Process(ctx, turn.SessionID, "yes, replica_id=db-9")
	if err != nil {
		t.Fatalf("approval turn: %v", err)
	}
	if turn.State != session.StateClosed {
		t.Fatalf("state = %s, want closed", turn.State)
	}
	if !strings.Contains(turn.Response, "pg-pool remove db-9") {
		t.Errorf("approved command should carry the late-bound value:\n%s", turn.Response)
	}
	if !strings.Contains(turn.Response, "pg-pool add db-9") {
		t.Errorf("rollback command should carry the late-bound value:\n%s", turn.Response)
	}
}

func TestIncidentResponseWithoutDestructiveCommands(t *testing.T) {
	const safeRunbook = `---
title: Cache Warmup
severity: low
---

## Diagnosis

Check hit rates.

## Remediation

` + "```bash" + `
cache-warm --service {{service}}
` + "```" + `

## Rollback

Nothing to roll back; warmup is additive.
`
	rb := runbook.Parse(safeRunbook)
	rb.Path = "runbooks/cache_warmup.md"
	src := &fakeSource{books: map[string]*runbook.Runbook{rb.Path: rb}}
	idx := &fakeIndex{results: []vectordb.SearchResult{wholeDocResult(rb.Path, "Cache Warmup")}}
	bot := New(router.Default(), idx, score.New(score.DefaultRubric()), src, session.NewMemoryStore(), nil, DefaultConfig())

	turn, err := bot.Process(context.Background(), "", "alert: cache error rate is up, service=checkout")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if turn.State != session.StateClosed {
		t.Fatalf("state = %s, a plan without destructive commands must not gate", turn.State)
	}
	if !strings.Contains(turn.Response, "cache-warm --service checkout") {
		t.Errorf("response missing substituted command:\n%s", turn.Response)
	}
}

func TestPlanCommandsRespectsRetrievedSections(t *testing.T) {
	rb := runbook.Parse(latencyRunbook)
	rb.Path = "runbooks/database_latency.md"

	plan := planCommands(rb, []string{"Diagnosis"}, nil, DefaultConfig().DestructiveKeywords)
	if len(plan) != 1 {
		t.Fatalf("got %d commands, want 1 from the Diagnosis section", len(plan))
	}
	if plan[0].Section != "Diagnosis" {
		t.Errorf("section = %s", plan[0].Section)
	}
	if plan[0].Destructive {
		t.Error("the diagnosis query is not destructive")
	}
}

func TestPlanCommandsDocumentOrder(t *testing.T) {
	rb := runbook.Parse(latencyRunbook)
	rb.Path = "runbooks/database_latency.md"

	plan := planCommands(rb, nil, map[string]string{"replica_id": "db-1"}, DefaultConfig().DestructiveKeywords)
	if len(plan) != 4 {
		t.Fatalf("got %d commands, want 4", len(plan))
	}
	wantOrder := []string{"Diagnosis", "Remediation", "Remediation", "Rollback"}
	for i, pc := range plan {
		if pc.Section != wantOrder[i] {
			t.Errorf("plan[%d].Section = %s, want %s", i, pc.Section, wantOrder[i])
		}
		if len(pc.Missing) != 0 {
			t.Errorf("plan[%d] has unresolved placeholders %v after substitution", i, pc.Missing)
		}
	}
	if !plan[2].Destructive {
		t.Error("pg-pool remove should be flagged destructive")
	}
}

func TestOfflineCompositionHandlesMissingDiagnosis(t *testing.T) {
	rb := runbook.Parse(latencyRunbook)
	sess := &session.Session{Query: "latency alert"}
	sess.Queue = planCommands(rb, nil, nil, DefaultConfig().DestructiveKeywords)

	out := offlineIncidentResponse(sess, rb)
	if !strings.Contains(out, "Diagnosis:") {
		t.Errorf("response should include the diagnosis section, got:\n%s", out)
	}

	bare := runbook.Parse("---\ntitle: Bare\n---\n\n## Remediation\n\n```bash\nsystemctl restart app\n```\n")
	sess = &session.Session{Query: "app down"}
	sess.Queue = planCommands(bare, nil, nil, DefaultConfig().DestructiveKeywords)

	out = offlineIncidentResponse(sess, bare)
	if strings.Contains(out, "Diagnosis:") {
		t.Errorf("response should omit an absent diagnosis section, got:\n%s", out)
	}
	if !strings.Contains(out, "systemctl restart app") {
		t.Errorf("response should list the planned command, got:\n%s", out)
	}
}
