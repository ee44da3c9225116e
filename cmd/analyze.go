package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/report"
	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [runbook]",
	Short: "Score runbook health across completeness, structure, safety and clarity",
	Long: `Analyzes a single runbook, or the whole runbook directory when no
argument is given, and reports per-criterion scores with findings and
recommendations. Scoring is deterministic and needs no LLM.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "output the report as JSON")
	analyzeCmd.Flags().String("html", "", "write the report as an HTML page to the given file")
	analyzeCmd.Flags().String("file", "", "analyze a standalone Markdown file instead of the runbook directory")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	htmlPath, _ := cmd.Flags().GetString("html")
	filePath, _ := cmd.Flags().GetString("file")

	scorer := score.New(score.DefaultRubric())

	var reports []score.Report

	switch {
	case filePath != "":
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filePath, err)
		}
		rb := runbook.Parse(string(raw))
		rb.Path = filePath
		reports = []score.Report{scorer.Score(rb)}

	case len(args) == 1:
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rb, err := buildCatalog(cfg).Get(ctx, args[0])
		if err != nil {
			return err
		}
		reports = []score.Report{scorer.Score(rb)}

	default:
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		books, err := buildCatalog(cfg).List(ctx)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			fmt.Printf("No runbooks found under %s.\n", cfg.RunbookDir)
			return nil
		}
		for _, rb := range books {
			reports = append(reports, scorer.Score(rb))
		}
	}

	if htmlPath != "" {
		page, err := renderAnalyzeHTML(reports)
		if err != nil {
			return err
		}
		if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", htmlPath, err)
		}
		fmt.Printf("Wrote HTML report to %s.\n", htmlPath)
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}
		return enc.Encode(map[string]any{
			"summary": score.Summarize(reports),
			"reports": reports,
		})
	}

	if len(reports) == 1 {
		fmt.Print(report.Markdown(reports[0]))
		return nil
	}
	fmt.Print(report.FleetMarkdown(reports))
	return nil
}

func renderAnalyzeHTML(reports []score.Report) (string, error) {
	if len(reports) == 1 {
		return report.HTML(reports[0])
	}
	return report.FleetHTML(reports)
}
