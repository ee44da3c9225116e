package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/ingest"
	"github.com/runbookops/runbook-agent/internal/progress"
	"github.com/runbookops/runbook-agent/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse the runbook directory and build the semantic index",
	Long: `Walks the configured runbook directory, parses each Markdown runbook,
embeds its sections, and persists the resulting index. Unchanged runbooks
are skipped on subsequent runs.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("prune", false, "remove index entries for deleted runbooks")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	prune, _ := cmd.Flags().GetBool("prune")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	// Reuse the existing index so unchanged entries survive. A missing
	// file just means a first run.
	_ = index.Load(ctx, cfg.DataDir)

	files, err := walker.Walk(walker.Config{
		RootDir: cfg.RunbookDir,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", cfg.RunbookDir, err)
	}
	if len(files) == 0 {
		fmt.Printf("No runbooks found under %s.\n", cfg.RunbookDir)
		return nil
	}

	pipeline := ingest.NewPipeline(index, cfg.DataDir)

	reporter := progress.NewReporter()
	reporter.Start(len(files))
	pipeline.SetProgressFunc(func(current, total int, message string) {
		reporter.Update(current, message)
	})

	result, err := pipeline.Run(ctx, files)
	reporter.Finish()
	if err != nil {
		return err
	}

	if prune {
		removed, err := pipeline.Prune(ctx, files)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}
		if removed > 0 {
			fmt.Printf("Pruned %d deleted runbook(s) from the index.\n", removed)
		}
	}

	fmt.Printf("Ingested %d runbook(s), skipped %d unchanged, %d failed in %s.\n",
		result.Processed, result.Skipped, result.Failed, result.Duration.Round(time.Millisecond))
	for _, e := range result.Errors {
		fmt.Printf("  - %v\n", e)
	}
	fmt.Printf("Index now holds %d entries under %s.\n", index.Count(), cfg.DataDir)
	return nil
}
