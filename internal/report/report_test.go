package report

import (
	"strings"
	"testing"

	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
)

const sampleRunbook = `---
title: Disk Pressure
severity: medium
---

## Diagnosis

Check disk usage per volume.

` + "```bash" + `
df -h
` + "```" + `

## Remediation

1. Clear old log archives.

` + "```bash" + `
rm -rf /var/log/archive/{{service}}
` + "```" + `
`

func sampleReport(t *testing.T) score.Report {
	t.Helper()
	rb := runbook.Parse(sampleRunbook)
	rb.Path = "runbooks/disk_pressure.md"
	return score.New(score.DefaultRubric()).Score(rb)
}

func TestMarkdownStructure(t *testing.T) {
	md := Markdown(sampleReport(t))

	if !strings.Contains(md, "# Runbook Health: Disk Pressure") {
		t.Errorf("missing title heading:\n%s", md)
	}
	if !strings.Contains(md, "| Criterion | Score |") {
		t.Errorf("missing criterion table:\n%s", md)
	}
	for _, name := range score.CriterionOrder {
		if !strings.Contains(md, "| "+string(name)+" |") {
			t.Errorf("missing criterion row %s", name)
		}
	}
	// The sample has no Rollback section, so issues must be present.
	if !strings.Contains(md, "## Issues") {
		t.Errorf("expected issues section:\n%s", md)
	}
	if !strings.Contains(md, "## Recommendations") {
		t.Errorf("expected recommendations section:\n%s", md)
	}
}

func TestFleetMarkdownOrdersWorstFirst(t *testing.T) {
	good := sampleReport(t)
	bad := score.New(score.DefaultRubric()).Score(runbook.Parse("just some text"))
	bad.Path = "runbooks/empty.md"

	md := FleetMarkdown([]score.Report{good, bad})

	if !strings.Contains(md, "# Runbook Fleet Health") {
		t.Errorf("missing fleet heading:\n%s", md)
	}
	badAt := strings.Index(md, "runbooks/empty.md")
	goodAt := strings.Index(md, "Disk Pressure")
	if badAt < 0 || goodAt < 0 {
		t.Fatalf("both reports must appear:\n%s", md)
	}
	if badAt > goodAt {
		t.Error("worst runbook should be listed first")
	}
}

func TestHealthLabel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.95, "healthy"},
		{0.75, "needs attention"},
		{0.55, "at risk"},
		{0.20, "critical"},
	}
	for _, tc := range cases {
		if got := healthLabel(tc.score); got != tc.want {
			t.Errorf("healthLabel(%.2f) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestHTMLRendersCompletePage(t *testing.T) {
	page, err := HTML(sampleReport(t))
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(page, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(page, "<title>Runbook Health: Disk Pressure</title>") {
		t.Errorf("missing page title:\n%s", page[:200])
	}
	if !strings.Contains(page, "<table>") {
		t.Error("criterion table should render as HTML")
	}
}

func TestFleetHTML(t *testing.T) {
	page, err := FleetHTML([]score.Report{sampleReport(t)})
	if err != nil {
		t.Fatalf("FleetHTML: %v", err)
	}
	if !strings.Contains(page, "Runbook Fleet Health") {
		t.Error("missing fleet heading")
	}
}
