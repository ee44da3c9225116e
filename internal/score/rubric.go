package score

// CriterionName identifies one axis of the runbook health rubric.
type CriterionName string

const (
	Completeness CriterionName = "completeness"
	Structure    CriterionName = "structure"
	Safety       CriterionName = "safety"
	Clarity      CriterionName = "clarity"
)

// CriterionOrder fixes the iteration order for reports and rendering.
var CriterionOrder = []CriterionName{Completeness, Structure, Safety, Clarity}

// Policy constants of the default rubric. They are deliberately named and
// exported through DefaultRubric rather than buried in the evaluators.
const (
	// defaultWeight gives each criterion an equal share of the overall score.
	defaultWeight = 0.25

	// clarityMaxAvgSentenceWords bounds the average sentence length before
	// the clarity criterion flags the prose as hard to follow.
	clarityMaxAvgSentenceWords = 30

	// clarityMaxSynonymVariants is the number of distinct terms for one
	// concept at which terminology is considered inconsistent.
	clarityMaxSynonymVariants = 3

	// Deductions applied by the structure criterion.
	structureMissingSectionPenalty = 0.20
	structureOrderPenalty          = 0.10
	structureNoMetadataPenalty     = 0.15
	structureMissingFieldPenalty   = 0.15

	// Deductions applied by the safety criterion.
	safetyUnwarnedDestructivePenalty = 0.35
	safetyMissingRollbackPenalty     = 0.40
	safetyNoWarningLanguagePenalty   = 0.15

	// Partial credit used by the clarity criterion.
	claritySentenceFull       = 0.40
	claritySentencePartial    = 0.15
	clarityPlaceholderFull    = 0.30
	clarityPlaceholderPartial = 0.10
	clarityTerminologyFull    = 0.30
	clarityTerminologyPartial = 0.15
)

// Rubric holds every tunable the scorer consults. Tests construct alternate
// rubrics; production code uses DefaultRubric. Changing the default weights
// is a design change, not a runtime option.
type Rubric struct {
	Weights map[CriterionName]float64

	// DestructiveKeywords classify a command block as destructive when any
	// of them appears in the command text (case-insensitive substring).
	// The incident state machine shares this set.
	DestructiveKeywords []string

	// WarningPhrases satisfy the "explicit warning before a destructive
	// command" safety rule.
	WarningPhrases []string

	// ValidationKeywords mark a remediation step as a verification step.
	ValidationKeywords []string

	// EscalationKeywords mark escalation/contact information in prose.
	EscalationKeywords []string

	// SynonymGroups approximate terminology consistency: a group where at
	// least MaxSynonymVariants members all appear in the prose counts as
	// inconsistent naming of one concept.
	SynonymGroups [][]string

	MaxAvgSentenceWords int
	MaxSynonymVariants  int
}

// DefaultRubric returns the fixed production rubric.
func DefaultRubric() Rubric {
	return Rubric{
		Weights: map[CriterionName]float64{
			Completeness: defaultWeight,
			Structure:    defaultWeight,
			Safety:       defaultWeight,
			Clarity:      defaultWeight,
		},
		DestructiveKeywords: []string{
			"delete", "drop", "truncate", "remove", "rm -rf", "terminate",
		},
		WarningPhrases: []string{
			"warning", "caution", "confirm", "are you sure", "double-check",
			"double check", "approval",
		},
		ValidationKeywords: []string{
			"validate", "validation", "verify", "verification", "confirm", "check",
		},
		EscalationKeywords: []string{
			"escalat", "on-call", "on call", "owner", "contact",
		},
		SynonymGroups: [][]string{
			{"database", "db", "datastore"},
			{"restart", "reboot", "bounce"},
			{"server", "host", "node", "machine"},
			{"fix", "remediate", "resolve", "repair"},
		},
		MaxAvgSentenceWords: clarityMaxAvgSentenceWords,
		MaxSynonymVariants:  clarityMaxSynonymVariants,
	}
}

// IsDestructive reports whether the command text matches any of the given
// destructive keywords, case-insensitively.
func IsDestructive(command string, keywords []string) bool {
	return containsAny(command, keywords)
}
