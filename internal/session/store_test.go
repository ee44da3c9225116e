package session

import (
	"context"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLiteMemory()
	if err != nil {
		t.Fatalf("OpenSQLiteMemory: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sess := &Session{
				Query: "database latency alert",
				State: StateAwaitingConfirmation,
				Pending: &PlannedCommand{
					Command:     "DROP TABLE staging_events;",
					Language:    "sql",
					Section:     "Remediation",
					SourcePath:  "runbooks/db.md",
					Destructive: true,
				},
				Queue:    []PlannedCommand{{Command: "echo done"}},
				Vars:     map[string]string{"replica_id": "db-7"},
				Rollback: "Restore from snapshot.",
			}
			if err := store.Create(ctx, sess); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if sess.ID == "" {
				t.Fatal("Create did not assign an ID")
			}

			got, err := store.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got == nil {
				t.Fatal("Get returned nil for existing session")
			}
			if got.State != StateAwaitingConfirmation {
				t.Errorf("State = %q", got.State)
			}
			if got.Pending == nil || !got.Pending.Destructive {
				t.Errorf("Pending not preserved: %+v", got.Pending)
			}
			if got.Vars["replica_id"] != "db-7" {
				t.Errorf("Vars not preserved: %v", got.Vars)
			}

			got.State = StateClosed
			got.Pending = nil
			if err := store.Save(ctx, got); err != nil {
				t.Fatalf("Save: %v", err)
			}
			again, err := store.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get after Save: %v", err)
			}
			if again.State != StateClosed || again.Pending != nil {
				t.Errorf("Save not applied: state %q pending %+v", again.State, again.Pending)
			}
		})
	}
}

func TestStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(ctx, "no-such-id")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != nil {
				t.Errorf("Get(missing) = %+v, want nil", got)
			}
		})
	}
}

func TestDecisionAuditTrail(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sess := &Session{State: StateAwaitingConfirmation}
			if err := store.Create(ctx, sess); err != nil {
				t.Fatalf("Create: %v", err)
			}

			decisions := []Decision{
				{SessionID: sess.ID, Command: "DROP TABLE a;", Approved: false, Reply: "no"},
				{SessionID: sess.ID, Command: "DROP TABLE a;", Approved: true, Reply: "yes"},
			}
			for _, d := range decisions {
				if err := store.RecordDecision(ctx, d); err != nil {
					t.Fatalf("RecordDecision: %v", err)
				}
			}

			got, err := store.Decisions(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Decisions: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("got %d decisions, want 2", len(got))
			}
			if got[0].Approved || !got[1].Approved {
				t.Errorf("decision order/values wrong: %+v", got)
			}

			other, err := store.Decisions(ctx, "unrelated-session")
			if err != nil {
				t.Fatalf("Decisions(unrelated): %v", err)
			}
			if len(other) != 0 {
				t.Errorf("cross-session visibility: %+v", other)
			}
		})
	}
}
