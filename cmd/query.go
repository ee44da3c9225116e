package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runbookops/runbook-agent/internal/vectordb"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Semantically search the ingested runbooks",
	Long:  `Searches the runbook index using a natural language query and returns the best-matching sections with their source runbooks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 3, "maximum number of results")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	queryText := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index, err := loadIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if index.Count() == 0 {
		fmt.Println("The index is empty. Run `runbook ingest` first.")
		return nil
	}

	results, err := index.Query(ctx, queryText, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		return printQueryResultsJSON(results)
	}
	printQueryResults(results)
	return nil
}

type queryResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	Runbook    string  `json:"runbook"`
	Section    string  `json:"section,omitempty"`
	Title      string  `json:"title"`
	Severity   string  `json:"severity,omitempty"`
	Excerpt    string  `json:"excerpt"`
}

func printQueryResultsJSON(results []vectordb.SearchResult) error {
	var out []queryResultJSON
	for i, r := range results {
		out = append(out, queryResultJSON{
			Rank:       i + 1,
			Similarity: float64(r.Similarity),
			Runbook:    r.Entry.Metadata.RunbookPath,
			Section:    r.Entry.Metadata.Section,
			Title:      r.Entry.Metadata.Title,
			Severity:   r.Entry.Metadata.Severity,
			Excerpt:    truncate(r.Entry.Content, 200),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printQueryResults(results []vectordb.SearchResult) {
	fmt.Printf("Found %d result(s):\n\n", len(results))
	for i, r := range results {
		location := r.Entry.Metadata.RunbookPath
		if r.Entry.Metadata.Section != "" {
			location = fmt.Sprintf("%s (%s)", location, r.Entry.Metadata.Section)
		}

		fmt.Printf("  %d. [%.1f%%] %s\n", i+1, r.Similarity*100, location)
		if r.Entry.Metadata.Severity != "" {
			fmt.Printf("     Severity: %s\n", r.Entry.Metadata.Severity)
		}
		fmt.Printf("     %s\n\n", truncate(r.Entry.Content, 120))
	}
}
