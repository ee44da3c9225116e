package runbook

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleRunbook = `---
title: Database Latency High
version: "1.2"
service_owner: platform-db@example.com
severity: high
trigger_criteria: p99 query latency above 500ms for 5 minutes
---

Short summary before the first section.

## Diagnosis

1. Check the latency dashboard.
2. Identify slow queries:

` + "```sql" + `
SELECT * FROM pg_stat_activity WHERE state = 'active';
` + "```" + `

## Remediation

1. Restart the read replica {{replica_id}}:

` + "```bash" + `
aws rds reboot-db-instance --db-instance-identifier {{replica_id}}
` + "```" + `

2. Verify latency recovers below 500ms.

## Rollback

Restore the previous parameter group.

## Safety

Warning: confirm with the on-call DBA before any destructive action.
`

func TestParseMetadata(t *testing.T) {
	rb := Parse(sampleRunbook)

	if got, want := rb.Meta.Title, "Database Latency High"; got != want {
		t.Errorf("Title = %q, want %q", got, want)
	}
	if got, want := rb.Meta.Version, "1.2"; got != want {
		t.Errorf("Version = %q, want %q", got, want)
	}
	if got, want := rb.Meta.ServiceOwner, "platform-db@example.com"; got != want {
		t.Errorf("ServiceOwner = %q, want %q", got, want)
	}
	if rb.Meta.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want %q", rb.Meta.Severity, SeverityHigh)
	}
	if rb.Meta.TriggerCriteria == "" {
		t.Error("TriggerCriteria is empty")
	}
	if !rb.Meta.Has("service_owner") {
		t.Error("Has(service_owner) = false")
	}
	if rb.Meta.Has("nonexistent") {
		t.Error("Has(nonexistent) = true")
	}
}

func TestParseSections(t *testing.T) {
	rb := Parse(sampleRunbook)

	var names []string
	for _, s := range rb.Sections {
		names = append(names, s.Name)
	}
	want := []string{"Diagnosis", "Remediation", "Rollback", "Safety"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("section names = %v, want %v", names, want)
	}

	if rb.Preamble != "Short summary before the first section." {
		t.Errorf("Preamble = %q", rb.Preamble)
	}

	diag, ok := rb.Section("diagnosis")
	if !ok {
		t.Fatal("Section(diagnosis) not found")
	}
	if !strings.Contains(diag.Body, "latency dashboard") {
		t.Errorf("Diagnosis body missing prose: %q", diag.Body)
	}
	if !strings.Contains(diag.Body, "```sql") {
		t.Errorf("Diagnosis body should retain the fence: %q", diag.Body)
	}
}

func TestParseCommandBlocks(t *testing.T) {
	rb := Parse(sampleRunbook)

	if len(rb.Commands) != 2 {
		t.Fatalf("got %d command blocks, want 2", len(rb.Commands))
	}

	sql := rb.Commands[0]
	if sql.Language != "sql" || sql.Section != "Diagnosis" {
		t.Errorf("first block = {lang %q, section %q}", sql.Language, sql.Section)
	}

	bash := rb.Commands[1]
	if bash.Language != "bash" || bash.Section != "Remediation" {
		t.Errorf("second block = {lang %q, section %q}", bash.Language, bash.Section)
	}
	if !reflect.DeepEqual(bash.Placeholders, []string{"replica_id"}) {
		t.Errorf("placeholders = %v, want [replica_id]", bash.Placeholders)
	}
}

func TestParseFenceWithoutLanguage(t *testing.T) {
	rb := Parse("## Remediation\n\n```\necho hello\n```\n")

	if len(rb.Commands) != 1 {
		t.Fatalf("got %d command blocks, want 1", len(rb.Commands))
	}
	if rb.Commands[0].Language != "text" {
		t.Errorf("Language = %q, want text", rb.Commands[0].Language)
	}
}

func TestParseTotalOnMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":                    "",
		"frontmatter only":         "---\ntitle: x\n---\n",
		"unterminated frontmatter": "---\ntitle: x\n",
		"unterminated fence":       "## Remediation\n```bash\nrm -rf /tmp/cache\n",
		"no headings":              "just some prose\nwith no structure",
		"malformed yaml":           "---\n: : : [unclosed\ntitle: still here\n---\nbody",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			rb := Parse(input)
			if rb == nil {
				t.Fatal("Parse returned nil")
			}
		})
	}
}

func TestParseMalformedFrontmatterFallback(t *testing.T) {
	rb := Parse("---\n: : : [unclosed\ntitle: still here\n---\nbody")
	if rb.Meta.Title != "still here" {
		t.Errorf("Title = %q, want fallback scan to recover it", rb.Meta.Title)
	}
}

func TestParseUnterminatedFenceStillYieldsCommand(t *testing.T) {
	rb := Parse("## Remediation\n```bash\nrm -rf /tmp/cache\n")
	if len(rb.Commands) != 1 {
		t.Fatalf("got %d command blocks, want 1", len(rb.Commands))
	}
	if !strings.Contains(rb.Commands[0].Raw, "rm -rf") {
		t.Errorf("Raw = %q", rb.Commands[0].Raw)
	}
}

func TestParseDuplicateHeadingsMerge(t *testing.T) {
	rb := Parse("## Diagnosis\nfirst\n## diagnosis\nsecond\n")
	if len(rb.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(rb.Sections))
	}
	body := rb.Sections[0].Body
	if !strings.Contains(body, "first") || !strings.Contains(body, "second") {
		t.Errorf("merged body = %q", body)
	}
}

func TestExtractPlaceholders(t *testing.T) {
	got := ExtractPlaceholders("restart {{instance_id}} then {{region}} then {{instance_id}} again")
	want := []string{"instance_id", "region"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if out := ExtractPlaceholders("no markers here"); out != nil {
		t.Errorf("got %v, want nil", out)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"low", SeverityLow},
		{"Medium", SeverityMedium},
		{"HIGH", SeverityHigh},
		{"critical", SeverityCritical},
		{" Critical ", SeverityCritical},
		{"whatever", SeverityUnknown},
		{"", SeverityUnknown},
	}
	for _, tc := range cases {
		if got := ParseSeverity(tc.in); got != tc.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFixtureFiles(t *testing.T) {
	cases := []struct {
		file     string
		title    string
		severity Severity
		commands int
	}{
		{"database_latency.md", "Database Latency High", SeverityHigh, 5},
		{"cache_warmup.md", "Cache Warmup After Deploy", SeverityLow, 2},
	}
	for _, tc := range cases {
		data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "runbooks", tc.file))
		if err != nil {
			t.Fatalf("read %s: %v", tc.file, err)
		}
		rb := Parse(string(data))
		if rb.Meta.Title != tc.title {
			t.Errorf("%s: Title = %q, want %q", tc.file, rb.Meta.Title, tc.title)
		}
		if rb.Meta.Severity != tc.severity {
			t.Errorf("%s: Severity = %q, want %q", tc.file, rb.Meta.Severity, tc.severity)
		}
		if got := len(rb.Commands); got != tc.commands {
			t.Errorf("%s: %d commands, want %d", tc.file, got, tc.commands)
		}
	}

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "runbooks", "database_latency.md"))
	if err != nil {
		t.Fatal(err)
	}
	rb := Parse(string(data))
	sec, ok := rb.Section(SectionRollback)
	if !ok {
		t.Fatal("Rollback section missing")
	}
	if !strings.Contains(sec.Body, "pg-pool add {{replica_id}}") {
		t.Errorf("Rollback body = %q", sec.Body)
	}
}
