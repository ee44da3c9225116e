package score

import (
	"regexp"
	"strings"

	"github.com/runbookops/runbook-agent/internal/runbook"
)

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// containsAny reports whether text contains any needle, case-insensitively.
func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

var wordSplitRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// containsWord reports whether lowerText contains term as a whole token.
// Substring matching would make "db" match "dbadmin" and inflate the
// terminology heuristic.
func containsWord(lowerText, term string) bool {
	for _, tok := range wordSplitRegex.Split(lowerText, -1) {
		if tok == term {
			return true
		}
	}
	return false
}

// fullBody concatenates the preamble and every section of the runbook.
func fullBody(rb *runbook.Runbook) string {
	var sb strings.Builder
	sb.WriteString(rb.Preamble)
	for _, s := range rb.Sections {
		sb.WriteString("\n")
		sb.WriteString(s.Name)
		sb.WriteString("\n")
		sb.WriteString(s.Body)
	}
	return sb.String()
}

// proseOf returns the runbook text with fenced command regions removed.
func proseOf(rb *runbook.Runbook) string {
	var sb strings.Builder
	sb.WriteString(rb.Preamble)
	for _, s := range rb.Sections {
		sb.WriteString("\n")
		sb.WriteString(proseOfText(s.Body))
	}
	return sb.String()
}

// proseOfText strips fenced code regions from a block of Markdown.
func proseOfText(text string) string {
	var (
		sb      strings.Builder
		inFence bool
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// sectionIndex returns the position of the named section within rb.Sections,
// or -1 when absent.
func sectionIndex(rb *runbook.Runbook, name string) int {
	for i, s := range rb.Sections {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

// sectionsWithoutSteps returns the given section names that exist but have
// no numbered or bulleted line, plus those missing entirely.
func sectionsWithoutSteps(rb *runbook.Runbook, names ...string) []string {
	var out []string
	for _, name := range names {
		sec, ok := rb.Section(name)
		if !ok {
			out = append(out, name)
			continue
		}
		found := false
		for _, line := range strings.Split(sec.Body, "\n") {
			if stepLineRegex.MatchString(line) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}

// textBeforeCommand returns the enclosing section's text up to the start of
// the given command block. When the block cannot be located the whole
// section body is returned, which errs toward treating a warning anywhere
// in the section as sufficient.
func textBeforeCommand(rb *runbook.Runbook, cmd runbook.CommandBlock) string {
	sec, ok := rb.Section(cmd.Section)
	if !ok {
		return rb.Preamble
	}
	if cmd.Raw == "" {
		return sec.Body
	}
	if idx := strings.Index(sec.Body, cmd.Raw); idx >= 0 {
		return sec.Body[:idx]
	}
	return sec.Body
}

var sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)

// averageSentenceWords computes the mean word count per sentence of prose.
func averageSentenceWords(prose string) float64 {
	var sentences int
	var words int
	for _, s := range sentenceSplitRegex.Split(prose, -1) {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			continue
		}
		sentences++
		words += len(fields)
	}
	if sentences == 0 {
		return 0
	}
	return float64(words) / float64(sentences)
}
