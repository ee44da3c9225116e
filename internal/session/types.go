package session

import "time"

// State tracks where an incident conversation is in its lifecycle.
type State string

const (
	StateRouted               State = "routed"
	StateRetrieved            State = "retrieved"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateResponding           State = "responding"
	StateClosed               State = "closed"
)

// PlannedCommand is one command block extracted from retrieved runbook
// content, with any placeholder substitutions already applied.
type PlannedCommand struct {
	Seq         int      `json:"seq"` // position in the plan, document order
	Command     string   `json:"command"`
	Language    string   `json:"language"`
	Section     string   `json:"section"`
	SourcePath  string   `json:"source_path"`
	Destructive bool     `json:"destructive"`
	Missing     []string `json:"missing,omitempty"` // placeholders still unresolved
}

// Session is the per-conversation state of an incident interaction. The
// pending confirmation survives exactly one follow-up turn; it is the only
// cross-turn state the incident path reads. Sessions are keyed by ID and
// never shared across conversations.
type Session struct {
	ID    string `json:"id"`
	Query string `json:"query"`
	State State  `json:"state"`

	// Pending is the destructive command awaiting explicit approval.
	Pending *PlannedCommand `json:"pending,omitempty"`

	// Queue holds the command blocks after Pending, in document order.
	Queue []PlannedCommand `json:"queue,omitempty"`

	// Vars are placeholder values supplied by the operator.
	Vars map[string]string `json:"vars,omitempty"`

	// Context is the retrieved runbook text used for composition.
	Context string `json:"context,omitempty"`

	// Rollback is the rollback-section text of the matched runbook.
	Rollback string `json:"rollback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decision records one confirmation prompt outcome, kept as an audit trail
// of what the operator approved or declined.
type Decision struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Command   string    `json:"command"`
	Approved  bool      `json:"approved"`
	Reply     string    `json:"reply"` // verbatim operator response
	CreatedAt time.Time `json:"created_at"`
}
