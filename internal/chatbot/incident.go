package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// handleIncident retrieves the best-matching runbook for an alert,
// substitutes any variables found in the message, and walks the matched
// commands in document order. The first destructive command that has not
// been approved halts the session until the operator confirms.
func (c *Chatbot) handleIncident(ctx context.Context, message string) (*Turn, error) {
	results, err := c.index.Query(ctx, message, c.cfg.TopK)
	if err != nil {
		if errors.Is(err, vectordb.ErrEmbeddingUnavailable) || errors.Is(err, vectordb.ErrIndexCorrupted) {
			log.Printf("chatbot: incident retrieval degraded: %v", err)
			return degradeToCare(err), nil
		}
		return nil, fmt.Errorf("querying runbook index: %w", err)
	}

	now := time.Now().UTC()
	sess := &session.Session{
		Query:     message,
		State:     session.StateRouted,
		Vars:      parseVars(message),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(results) == 0 {
		sess.State = session.StateClosed
		sess.Context = "no matching runbook"
		if err := c.sessions.Create(ctx, sess); err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
		return &Turn{
			SessionID: sess.ID,
			Mode:      router.ModeIncident,
			State:     sess.State,
			Response: "No runbook matched this alert. Ingest the relevant runbooks, " +
				"or escalate to the on-call engineer.",
		}, nil
	}

	// The top-ranked entry decides which runbook handles the incident.
	// Lower-ranked entries from the same document widen the set of
	// sections whose commands we plan.
	matchPath := results[0].Entry.Metadata.RunbookPath
	rb, err := c.source.Get(ctx, matchPath)
	if err != nil {
		return nil, fmt.Errorf("loading matched runbook %s: %w", matchPath, err)
	}

	sess.State = session.StateRetrieved
	sess.Context = rb.Meta.Title
	if sec, ok := rb.Section(runbook.SectionRollback); ok {
		sess.Rollback = runbook.Substitute(strings.TrimSpace(sec.Body), sess.Vars)
	}
	sess.Queue = planCommands(rb, retrievedSections(results, matchPath), sess.Vars, c.cfg.DestructiveKeywords)

	turn := &Turn{
		SessionID: sess.ID,
		Mode:      router.ModeIncident,
		Retrieved: results,
	}

	if idx := firstDestructive(sess.Queue); idx >= 0 {
		pending := sess.Queue[idx]
		sess.Pending = &pending
		sess.State = session.StateAwaitingConfirmation
		turn.Response = confirmationPrompt(rb.Meta.Title, pending, sess.Rollback)
	} else {
		sess.State = session.StateResponding
		turn.Response = c.composeIncident(ctx, sess, rb)
		sess.State = session.StateClosed
	}

	sess.UpdatedAt = time.Now().UTC()
	if err := c.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	turn.SessionID = sess.ID
	turn.State = sess.State
	return turn, nil
}

// handleConfirmation interprets the operator's reply to a pending
// destructive command. Only a reply matching the affirmative set approves
// it; a negative reply skips it; anything else re-asks.
func (c *Chatbot) handleConfirmation(ctx context.Context, sess *session.Session, message string) (*Turn, error) {
	turn := &Turn{
		SessionID: sess.ID,
		Mode:      router.ModeIncident,
	}
	if sess.Pending == nil {
		// Store drift. Close out rather than guessing.
		sess.State = session.StateClosed
		sess.UpdatedAt = time.Now().UTC()
		if err := c.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
		turn.State = sess.State
		turn.Response = "The pending step is no longer available. Start a new incident query."
		return turn, nil
	}

	// Replies may carry late variable values ("yes, replica_id=db-2").
	if vars := parseVars(message); len(vars) > 0 {
		if sess.Vars == nil {
			sess.Vars = map[string]string{}
		}
		for k, v := range vars {
			sess.Vars[k] = v
		}
		applyVars(sess.Pending, sess.Vars)
		for i := range sess.Queue {
			applyVars(&sess.Queue[i], sess.Vars)
		}
		sess.Rollback = runbook.Substitute(sess.Rollback, sess.Vars)
	}

	switch classifyReply(message, c.cfg.AffirmativeKeywords, c.cfg.NegativeKeywords) {
	case replyAffirmative:
		if err := c.recordDecision(ctx, sess, message, true); err != nil {
			return nil, err
		}
		return c.advance(ctx, sess, turn)

	case replyNegative:
		if err := c.recordDecision(ctx, sess, message, false); err != nil {
			return nil, err
		}
		declined := sess.Pending.Command
		sess.Pending = nil
		sess.State = session.StateClosed
		sess.UpdatedAt = time.Now().UTC()
		if err := c.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
		turn.State = sess.State
		turn.Response = "Understood, I won't run:\n\n    " + declined +
			"\n\nThe incident session is closed. Re-run the query to start over, " +
			"or escalate if the issue persists."
		return turn, nil

	default:
		// Ambiguous. State does not change; ask again.
		sess.UpdatedAt = time.Now().UTC()
		if err := c.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
		turn.State = sess.State
		turn.Response = "I need an explicit yes or no before running a destructive command:\n\n    " +
			sess.Pending.Command + "\n\nReply \"yes\" to proceed or \"no\" to skip it."
		return turn, nil
	}
}

// advance moves past an approved command: either the next destructive
// command later in the plan becomes pending, or the session composes its
// final response and closes. The queue keeps the whole plan so the final
// composition can present every step in document order.
func (c *Chatbot) advance(ctx context.Context, sess *session.Session, turn *Turn) (*Turn, error) {
	approved := *sess.Pending
	sess.Pending = nil

	if idx := nextDestructive(sess.Queue, approved.Seq); idx >= 0 {
		next := sess.Queue[idx]
		sess.Pending = &next
		sess.State = session.StateAwaitingConfirmation
		sess.UpdatedAt = time.Now().UTC()
		if err := c.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("saving session: %w", err)
		}
		turn.State = sess.State
		turn.Response = "Approved:\n\n    " + approved.Command +
			"\n\nThe next step is also destructive and needs its own confirmation.\n\n" +
			pendingPrompt(next, sess.Rollback)
		return turn, nil
	}

	sess.State = session.StateResponding
	rb, err := c.source.Get(ctx, approved.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("loading runbook %s: %w", approved.SourcePath, err)
	}
	turn.Response = "Approved:\n\n    " + approved.Command + "\n\n" + c.composeIncident(ctx, sess, rb)
	sess.State = session.StateClosed
	sess.UpdatedAt = time.Now().UTC()
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	turn.State = sess.State
	return turn, nil
}

func (c *Chatbot) recordDecision(ctx context.Context, sess *session.Session, reply string, approved bool) error {
	dec := session.Decision{
		SessionID: sess.ID,
		Command:   sess.Pending.Command,
		Approved:  approved,
		Reply:     strings.TrimSpace(reply),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.sessions.RecordDecision(ctx, dec); err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}
	return nil
}

type replyKind int

const (
	replyAmbiguous replyKind = iota
	replyAffirmative
	replyNegative
)

// classifyReply matches the operator's reply against the fixed keyword
// sets. Negatives win over affirmatives so "no, don't go ahead" declines.
func classifyReply(reply string, affirmative, negative []string) replyKind {
	norm := strings.ToLower(strings.TrimSpace(reply))
	for _, kw := range negative {
		if matchesReply(norm, kw) {
			return replyNegative
		}
	}
	for _, kw := range affirmative {
		if matchesReply(norm, kw) {
			return replyAffirmative
		}
	}
	return replyAmbiguous
}

// matchesReply accepts an exact keyword or a reply that begins with the
// keyword followed by a separator ("yes, replica_id=db-2").
func matchesReply(norm, keyword string) bool {
	if norm == keyword {
		return true
	}
	if strings.HasPrefix(norm, keyword) {
		rest := norm[len(keyword):]
		return strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, ",") ||
			strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "!")
	}
	return false
}

// retrievedSections collects the section names the index returned for the
// matched runbook, in the retrieval ranking. A whole-document entry (empty
// section) widens planning to every section.
func retrievedSections(results []vectordb.SearchResult, path string) []string {
	var names []string
	for _, r := range results {
		if r.Entry.Metadata.RunbookPath != path {
			continue
		}
		if r.Entry.Metadata.Section == "" {
			return nil // whole document
		}
		names = append(names, r.Entry.Metadata.Section)
	}
	return names
}

// planCommands assembles the command plan for an incident in strict
// document order, restricted to the retrieved sections unless the whole
// document matched. Variables are substituted immediately; placeholders
// without a value stay in the command text and are reported as missing.
func planCommands(rb *runbook.Runbook, sections []string, vars map[string]string, destructive []string) []session.PlannedCommand {
	include := func(section string) bool {
		if len(sections) == 0 {
			return true
		}
		for _, s := range sections {
			if strings.EqualFold(s, section) {
				return true
			}
		}
		return false
	}

	var plan []session.PlannedCommand
	for _, cmd := range rb.Commands {
		if !include(cmd.Section) {
			continue
		}
		pc := session.PlannedCommand{
			Seq:         len(plan),
			Command:     cmd.Raw,
			Language:    cmd.Language,
			Section:     cmd.Section,
			SourcePath:  rb.Path,
			Destructive: score.IsDestructive(cmd.Raw, destructive),
		}
		applyVars(&pc, vars)
		plan = append(plan, pc)
	}
	return plan
}

// applyVars substitutes known variables into a planned command and
// recomputes which placeholders remain unresolved.
func applyVars(pc *session.PlannedCommand, vars map[string]string) {
	pc.Command = runbook.Substitute(pc.Command, vars)
	pc.Missing = runbook.ExtractPlaceholders(pc.Command)
}

// firstDestructive returns the index of the first destructive command in
// queue order, or -1.
func firstDestructive(queue []session.PlannedCommand) int {
	return nextDestructive(queue, -1)
}

// nextDestructive returns the index of the first destructive command whose
// plan position is after afterSeq, or -1.
func nextDestructive(queue []session.PlannedCommand, afterSeq int) int {
	for i, pc := range queue {
		if pc.Destructive && pc.Seq > afterSeq {
			return i
		}
	}
	return -1
}

// parseVars extracts key=value and "key: value" assignments from free
// text so alert payloads can fill runbook placeholders.
func parseVars(message string) map[string]string {
	vars := map[string]string{}
	for _, m := range varAssignRegex.FindAllStringSubmatch(message, -1) {
		key := m[1]
		val := strings.Trim(m[2], `"'`)
		if val != "" {
			vars[key] = val
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}
