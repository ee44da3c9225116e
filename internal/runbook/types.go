package runbook

import "strings"

// Severity classifies the operational impact a runbook addresses.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = ""
)

// Canonical section names, in the order a well-formed runbook presents them.
const (
	SectionDiagnosis   = "Diagnosis"
	SectionRemediation = "Remediation"
	SectionRollback    = "Rollback"
	SectionSafety      = "Safety"
)

// CanonicalSections lists the required sections in canonical order.
var CanonicalSections = []string{
	SectionDiagnosis,
	SectionRemediation,
	SectionRollback,
	SectionSafety,
}

// Metadata holds the frontmatter fields of a runbook. Fields that were not
// present in the source document are empty; Has distinguishes a missing key
// from one that was present with an empty value.
type Metadata struct {
	Title           string
	Version         string
	ServiceOwner    string
	Severity        Severity
	TriggerCriteria string

	// Raw preserves every frontmatter key/value pair as parsed,
	// including keys the scorer does not recognize.
	Raw map[string]string
}

// Has reports whether the given frontmatter key appeared in the document.
func (m Metadata) Has(key string) bool {
	_, ok := m.Raw[key]
	return ok
}

// Section is one heading-delimited region of the runbook body.
type Section struct {
	Name string // heading text, verbatim
	Body string // everything under the heading up to the next one
}

// CommandBlock is a fenced code region found inside a section.
type CommandBlock struct {
	Language     string   // fence info string, "text" if absent
	Raw          string   // command text without the fence markers
	Placeholders []string // {{name}} markers in order of first appearance
	Section      string   // name of the enclosing section, "" for preamble
}

// Runbook is the parsed form of one Markdown runbook document.
type Runbook struct {
	// Path is the document identity: the source file path as given at
	// ingestion time. Re-ingesting the same path replaces all derived
	// state; a Runbook is never mutated after Parse returns.
	Path string

	Meta     Metadata
	Preamble string // body text before the first section heading

	Sections []Section      // ordered, names unique
	Commands []CommandBlock // ordered, document order
}

// Section returns the section with the given name, matched
// case-insensitively, and whether it exists.
func (r *Runbook) Section(name string) (Section, bool) {
	for _, s := range r.Sections {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Section{}, false
}

// SectionCommands returns the command blocks belonging to the named section,
// in document order.
func (r *Runbook) SectionCommands(name string) []CommandBlock {
	var out []CommandBlock
	for _, c := range r.Commands {
		if strings.EqualFold(c.Section, name) {
			out = append(out, c)
		}
	}
	return out
}

// ParseSeverity maps a frontmatter severity value onto the Severity enum.
// Unrecognized values map to SeverityUnknown rather than failing.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "medium", "moderate":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical", "sev1", "sev-1":
		return SeverityCritical
	default:
		return SeverityUnknown
	}
}
