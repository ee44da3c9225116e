// Package report renders runbook health reports as Markdown, JSON-friendly
// structures, and standalone HTML pages.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/runbookops/runbook-agent/internal/score"
)

// healthLabel buckets an overall score for human readers.
func healthLabel(overall float64) string {
	switch {
	case overall >= 0.9:
		return "healthy"
	case overall >= 0.7:
		return "needs attention"
	case overall >= 0.5:
		return "at risk"
	default:
		return "critical"
	}
}

// Markdown renders one runbook's health report as GitHub-flavoured
// Markdown: a criterion table followed by findings and recommendations.
func Markdown(rep score.Report) string {
	var b strings.Builder

	title := rep.Title
	if title == "" {
		title = rep.Path
	}
	fmt.Fprintf(&b, "# Runbook Health: %s\n\n", title)
	if rep.Path != "" && rep.Path != title {
		fmt.Fprintf(&b, "Source: `%s`\n\n", rep.Path)
	}
	fmt.Fprintf(&b, "**Overall: %.0f%%** (%s)\n\n", rep.Overall*100, healthLabel(rep.Overall))

	b.WriteString("| Criterion | Score |\n|---|---|\n")
	for _, name := range score.CriterionOrder {
		crit, ok := rep.Criteria[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %.0f%% |\n", name, crit.Score*100)
	}
	b.WriteString("\n")

	if findings := rep.Findings(); len(findings) > 0 {
		b.WriteString("## Issues\n\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if recs := rep.Recommendations(); len(recs) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, r := range recs {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FleetMarkdown renders the fleet summary followed by each runbook's
// report, worst first so the reader sees the problems up top.
func FleetMarkdown(reports []score.Report) string {
	sum := score.Summarize(reports)

	var b strings.Builder
	b.WriteString("# Runbook Fleet Health\n\n")
	fmt.Fprintf(&b, "%d runbook(s) analyzed. **Overall: %.0f%%** (%s)\n\n",
		sum.Count, sum.Overall*100, healthLabel(sum.Overall))

	if sum.Count > 0 {
		b.WriteString("| Criterion | Fleet average |\n|---|---|\n")
		for _, name := range score.CriterionOrder {
			fmt.Fprintf(&b, "| %s | %.0f%% |\n", name, sum.Averages[name]*100)
		}
		b.WriteString("\n")
	}

	for _, rep := range sortWorstFirst(reports) {
		b.WriteString("---\n\n")
		b.WriteString(Markdown(rep))
	}
	return b.String()
}

func sortWorstFirst(reports []score.Report) []score.Report {
	out := make([]score.Report, len(reports))
	copy(out, reports)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Overall < out[j].Overall })
	return out
}
