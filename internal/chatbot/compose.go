package chatbot

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/runbookops/runbook-agent/internal/llm"
	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
)

const incidentPrompt = `You are an incident-response assistant. You are given an alert and the
matched runbook content. Walk the operator through the remediation steps in
order, quoting commands exactly as written. Never invent commands that are
not in the runbook. If a placeholder like {{name}} is unresolved, ask the
operator for its value instead of guessing. Mention the rollback procedure
at the end.`

const carePrompt = `You are a friendly support assistant for an operations team. Answer the
user's question helpfully and concisely. If the question is about an active
incident or about runbook quality, suggest phrasing it as an alert or an
analysis request so the right workflow handles it.`

const careFallback = `I can help with three kinds of requests:

- Incident alerts ("our database alert shows high latency") retrieve the matching runbook and walk through remediation.
- Runbook analysis ("review this runbook for completeness") scores your runbooks and reports issues.
- General questions, which need an LLM provider to be configured.

No LLM provider is configured, so general questions are limited to this guidance.`

const completionUnavailableMessage = "I was unable to complete the request because the language model " +
	"is not responding. The incident context is preserved; please try again."

// varAssignRegex matches key=value and "key: value" pairs embedded in alert
// text or operator replies.
var varAssignRegex = regexp.MustCompile(`([A-Za-z0-9_.-]+)\s*[=:]\s*("[^"]*"|'[^']*'|[^\s,;]+)`)

// composeIncident produces the final incident response. With a provider the
// retrieved content is narrated by the LLM; without one, or when the call
// fails, the deterministic offline composition is used so the operator
// always gets the runbook steps.
func (c *Chatbot) composeIncident(ctx context.Context, sess *session.Session, rb *runbook.Runbook) string {
	offline := offlineIncidentResponse(sess, rb)
	if c.provider == nil {
		return offline
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.cfg.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: incidentPrompt},
			{Role: llm.RoleUser, Content: incidentContext(sess, rb)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		log.Printf("chatbot: incident completion failed, using offline composition: %v", err)
		return offline
	}
	return strings.TrimSpace(resp.Content)
}

// incidentContext packs the alert, the matched runbook and the remaining
// command plan into the LLM user message.
func incidentContext(sess *session.Session, rb *runbook.Runbook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert: %s\n\n", sess.Query)
	fmt.Fprintf(&b, "Matched runbook: %s (severity %s)\n\n", rb.Meta.Title, rb.Meta.Severity)
	for _, sec := range rb.Sections {
		fmt.Fprintf(&b, "## %s\n%s\n\n", sec.Name, sec.Body)
	}
	if len(sess.Vars) > 0 {
		b.WriteString("Known variable values:\n")
		for k, v := range sess.Vars {
			fmt.Fprintf(&b, "- %s = %s\n", k, v)
		}
	}
	if missing := missingPlaceholders(sess.Queue); len(missing) > 0 {
		fmt.Fprintf(&b, "\nUnresolved placeholders: %s\n", strings.Join(missing, ", "))
	}
	return b.String()
}

// offlineIncidentResponse renders the matched runbook's remediation plan
// without an LLM. It follows the document's own ordering and flags
// unresolved placeholders explicitly.
func offlineIncidentResponse(sess *session.Session, rb *runbook.Runbook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matched runbook: %s", rb.Meta.Title)
	if rb.Meta.Severity != "" {
		fmt.Fprintf(&b, " (severity %s)", rb.Meta.Severity)
	}
	b.WriteString("\n")

	if sec, ok := rb.Section(runbook.SectionDiagnosis); ok {
		b.WriteString("\nDiagnosis:\n")
		b.WriteString(indentBlock(sec.Body))
		b.WriteString("\n")
	}

	if len(sess.Queue) > 0 {
		b.WriteString("\nCommands to run, in order:\n")
		for i, pc := range sess.Queue {
			fmt.Fprintf(&b, "\n%d. [%s] (%s)\n", i+1, pc.Section, pc.Language)
			b.WriteString(indentBlock(pc.Command))
			b.WriteString("\n")
		}
	}

	if missing := missingPlaceholders(sess.Queue); len(missing) > 0 {
		fmt.Fprintf(&b, "\nI need values for: %s. Reply with key=value pairs to fill them in.\n",
			strings.Join(missing, ", "))
	}

	if sess.Rollback != "" {
		b.WriteString("\nIf remediation makes things worse, roll back:\n")
		b.WriteString(indentBlock(sess.Rollback))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// confirmationPrompt explains a pending destructive command before
// anything runs: the command verbatim, why it is gated, where it came
// from, and the rollback path.
func confirmationPrompt(title string, pending session.PlannedCommand, rollback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matched runbook: %s\n\n", title)
	b.WriteString(pendingPrompt(pending, rollback))
	return b.String()
}

func pendingPrompt(pending session.PlannedCommand, rollback string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The next step in \"%s\" is destructive and needs your confirmation:\n\n", pending.Section)
	b.WriteString(indentBlock(pending.Command))
	b.WriteString("\n\nIt matches the destructive-command policy, so it will not be suggested as runnable until you approve it.")
	if len(pending.Missing) > 0 {
		fmt.Fprintf(&b, "\n\nIt still needs values for: %s. Include them in your reply as key=value pairs.",
			strings.Join(pending.Missing, ", "))
	}
	if rollback != "" {
		b.WriteString("\n\nRollback, should you need it:\n")
		b.WriteString(indentBlock(rollback))
	}
	b.WriteString("\n\nReply \"yes\" to proceed or \"no\" to skip it.")
	return b.String()
}

// missingPlaceholders collects unresolved placeholder names across the
// command plan, first appearance first.
func missingPlaceholders(queue []session.PlannedCommand) []string {
	seen := make(map[string]bool)
	var out []string
	for _, pc := range queue {
		for _, name := range pc.Missing {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func indentBlock(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

// renderAnalysis formats health reports for chat output: the fleet
// summary first, then each runbook's criterion breakdown and findings.
func renderAnalysis(reports []score.Report) string {
	sum := score.Summarize(reports)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d runbook(s). Overall health: %.0f%%\n", sum.Count, sum.Overall*100)
	for _, rep := range reports {
		fmt.Fprintf(&b, "\n%s (%s): %.0f%%\n", rep.Title, rep.Path, rep.Overall*100)
		for _, name := range score.CriterionOrder {
			crit, ok := rep.Criteria[name]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %-13s %.0f%%\n", name+":", crit.Score*100)
		}
		if findings := rep.Findings(); len(findings) > 0 {
			b.WriteString("  Issues:\n")
			for _, f := range findings {
				fmt.Fprintf(&b, "  - %s\n", f)
			}
		}
		if recs := rep.Recommendations(); len(recs) > 0 {
			b.WriteString("  Recommendations:\n")
			for _, r := range recs {
				fmt.Fprintf(&b, "  - %s\n", r)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
