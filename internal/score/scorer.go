package score

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/runbookops/runbook-agent/internal/runbook"
)

// Criterion is the outcome of evaluating one rubric axis.
type Criterion struct {
	Score           float64  // in [0,1]
	Findings        []string // human-readable, ordered, usable verbatim
	Recommendations []string
}

// Report is the full health evaluation of one runbook. It is computed fresh
// on every request; callers that cache must key the cache on content hash.
type Report struct {
	Path     string
	Title    string
	Criteria map[CriterionName]Criterion
	Overall  float64
}

// Findings returns all findings across criteria in CriterionOrder.
func (r Report) Findings() []string {
	var out []string
	for _, name := range CriterionOrder {
		out = append(out, r.Criteria[name].Findings...)
	}
	return out
}

// Recommendations returns all recommendations across criteria in CriterionOrder.
func (r Report) Recommendations() []string {
	var out []string
	for _, name := range CriterionOrder {
		out = append(out, r.Criteria[name].Recommendations...)
	}
	return out
}

// Scorer evaluates runbooks against a rubric. Evaluation is structural and
// deterministic: it inspects the parsed document only and never calls out.
type Scorer struct {
	rubric Rubric
}

// New creates a Scorer with the given rubric.
func New(rubric Rubric) *Scorer {
	return &Scorer{rubric: rubric}
}

// Score evaluates the runbook. It never fails: absent data scores low and
// produces findings rather than errors.
func (s *Scorer) Score(rb *runbook.Runbook) Report {
	report := Report{
		Path:     rb.Path,
		Title:    rb.Meta.Title,
		Criteria: make(map[CriterionName]Criterion, len(CriterionOrder)),
	}

	report.Criteria[Completeness] = s.scoreCompleteness(rb)
	report.Criteria[Structure] = s.scoreStructure(rb)
	report.Criteria[Safety] = s.scoreSafety(rb)
	report.Criteria[Clarity] = s.scoreClarity(rb)

	for name, c := range report.Criteria {
		report.Overall += s.rubric.Weights[name] * c.Score
	}
	return report
}

var stepLineRegex = regexp.MustCompile(`^\s*(\d+\.|-|\*)\s+`)

func (s *Scorer) scoreCompleteness(rb *runbook.Runbook) Criterion {
	var c Criterion
	const itemWeight = 0.25

	body := fullBody(rb)

	if rb.Meta.TriggerCriteria != "" || containsAny(body, []string{"trigger criteria"}) {
		c.Score += itemWeight
	} else {
		c.fail("Missing trigger criteria (when to use this runbook).",
			"Add trigger_criteria to the metadata block describing clear activation conditions.")
	}

	missingSteps := sectionsWithoutSteps(rb, runbook.SectionDiagnosis, runbook.SectionRemediation)
	if len(missingSteps) == 0 {
		c.Score += itemWeight
	} else {
		c.fail(fmt.Sprintf("No step-like lines found in: %s.", strings.Join(missingSteps, ", ")),
			"Write Diagnosis and Remediation as numbered or bulleted steps.")
	}

	if sec, ok := rb.Section(runbook.SectionRemediation); ok && containsAny(sec.Body, s.rubric.ValidationKeywords) {
		c.Score += itemWeight
	} else {
		c.fail("No validation step found in Remediation.",
			"Add a verification step after remediation to confirm the issue is resolved.")
	}

	if rb.Meta.ServiceOwner != "" || containsAny(body, s.rubric.EscalationKeywords) {
		c.Score += itemWeight
	} else {
		c.fail("No service owner or escalation contact found.",
			"Add service_owner to the metadata block and an escalation path to the body.")
	}

	return c
}

func (s *Scorer) scoreStructure(rb *runbook.Runbook) Criterion {
	c := Criterion{Score: 1.0}

	var missing []string
	var positions []int
	for _, name := range runbook.CanonicalSections {
		idx := sectionIndex(rb, name)
		if idx < 0 {
			missing = append(missing, name)
			continue
		}
		positions = append(positions, idx)
	}

	// Each missing canonical section is a hard deduction, independent of
	// the other criteria.
	for _, name := range missing {
		c.Score -= structureMissingSectionPenalty
		c.fail(fmt.Sprintf("Missing required section: %s.", name),
			fmt.Sprintf("Add a %q section.", name))
	}

	if len(missing) == 0 && !sort.IntsAreSorted(positions) {
		c.Score -= structureOrderPenalty
		c.fail("Canonical sections are out of order.",
			"Order sections as Diagnosis, Remediation, Rollback, Safety.")
	}

	if len(rb.Meta.Raw) == 0 {
		c.Score -= structureNoMetadataPenalty
		c.fail("Missing metadata block.",
			"Start the runbook with a --- delimited key: value metadata block.")
	}
	if rb.Meta.Version == "" {
		c.Score -= structureMissingFieldPenalty
		c.fail("No version found in metadata.",
			"Add a version field for runbook change control.")
	}
	if rb.Meta.ServiceOwner == "" {
		c.Score -= structureMissingFieldPenalty
		c.fail("No service owner found in metadata.",
			"Add a service_owner field to the metadata block.")
	}

	c.Score = clamp(c.Score)
	return c
}

func (s *Scorer) scoreSafety(rb *runbook.Runbook) Criterion {
	c := Criterion{Score: 1.0}

	if cmd, ok := s.unwarnedDestructiveCommand(rb); ok {
		c.Score -= safetyUnwarnedDestructivePenalty
		c.fail(fmt.Sprintf("Destructive command without a preceding warning or confirmation step (section %q).", cmd.Section),
			"Add an explicit warning or confirmation step before each destructive command.")
	}

	if sec, ok := rb.Section(runbook.SectionRollback); !ok || strings.TrimSpace(sec.Body) == "" {
		c.Score -= safetyMissingRollbackPenalty
		c.fail("No rollback section with recovery steps found.",
			"Add a Rollback section with clear recovery steps.")
	}

	if !containsAny(fullBody(rb), []string{"safety", "warning", "caution"}) {
		c.Score -= safetyNoWarningLanguagePenalty
		c.fail("No safety warnings or cautions found anywhere in the runbook.",
			"Add a short safety note covering impact, approvals, and backups.")
	}

	c.Score = clamp(c.Score)
	return c
}

// unwarnedDestructiveCommand returns the first destructive command block
// that has no warning phrase in the section text preceding it and no
// non-empty Safety section covering the document.
func (s *Scorer) unwarnedDestructiveCommand(rb *runbook.Runbook) (runbook.CommandBlock, bool) {
	safety, hasSafety := rb.Section(runbook.SectionSafety)
	safetyCovers := hasSafety && containsAny(safety.Body, s.rubric.WarningPhrases)

	for _, cmd := range rb.Commands {
		if !IsDestructive(cmd.Raw, s.rubric.DestructiveKeywords) {
			continue
		}
		if safetyCovers {
			continue
		}
		prefix := textBeforeCommand(rb, cmd)
		if !containsAny(prefix, s.rubric.WarningPhrases) {
			return cmd, true
		}
	}
	return runbook.CommandBlock{}, false
}

func (s *Scorer) scoreClarity(rb *runbook.Runbook) Criterion {
	var c Criterion

	prose := proseOf(rb)
	if strings.TrimSpace(prose) == "" && len(rb.Commands) == 0 {
		c.fail("Runbook content is empty.", "Add clear, step-by-step runbook content.")
		return c
	}

	if avg := averageSentenceWords(prose); avg <= float64(s.rubric.MaxAvgSentenceWords) {
		c.Score += claritySentenceFull
	} else {
		c.Score += claritySentencePartial
		c.fail(fmt.Sprintf("Average sentence length %.0f words exceeds the %d word bound.", avg, s.rubric.MaxAvgSentenceWords),
			"Break long sentences into short, imperative steps.")
	}

	if unresolved := s.unexplainedPlaceholders(rb); len(unresolved) == 0 {
		c.Score += clarityPlaceholderFull
	} else {
		c.Score += clarityPlaceholderPartial
		c.fail(fmt.Sprintf("Placeholders used in commands but never explained in prose: %s.", strings.Join(unresolved, ", ")),
			"Describe each {{placeholder}} in the surrounding text so operators know what to supply.")
	}

	if groups := s.inconsistentTerminology(prose); len(groups) == 0 {
		c.Score += clarityTerminologyFull
	} else {
		c.Score += clarityTerminologyPartial
		c.fail(fmt.Sprintf("Inconsistent terminology, one concept named several ways: %s.", strings.Join(groups, "; ")),
			"Pick one term per concept and use it throughout.")
	}

	c.Score = clamp(c.Score)
	return c
}

// unexplainedPlaceholders lists command placeholders whose names never
// appear in the prose of the enclosing section or the preamble.
func (s *Scorer) unexplainedPlaceholders(rb *runbook.Runbook) []string {
	var out []string
	seen := make(map[string]bool)
	for _, cmd := range rb.Commands {
		sec, _ := rb.Section(cmd.Section)
		context := strings.ToLower(proseOfText(sec.Body) + "\n" + rb.Preamble)
		for _, ph := range cmd.Placeholders {
			if seen[ph] {
				continue
			}
			if !strings.Contains(context, strings.ToLower(ph)) {
				seen[ph] = true
				out = append(out, ph)
			}
		}
	}
	return out
}

// inconsistentTerminology returns a description of each synonym group with
// MaxSynonymVariants or more distinct members present in the prose.
func (s *Scorer) inconsistentTerminology(prose string) []string {
	lower := strings.ToLower(prose)
	var out []string
	for _, group := range s.rubric.SynonymGroups {
		var present []string
		for _, term := range group {
			if containsWord(lower, term) {
				present = append(present, term)
			}
		}
		if len(present) >= s.rubric.MaxSynonymVariants {
			out = append(out, strings.Join(present, "/"))
		}
	}
	return out
}

func (c *Criterion) fail(finding, recommendation string) {
	c.Findings = append(c.Findings, finding)
	c.Recommendations = append(c.Recommendations, recommendation)
}
