package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch Search Console metrics into the store",
	Long: `Queries Search Console for the trailing window (default 7 days) by page and
query, and writes one page_metrics record per row. Zero rows is not an error.`,
	Args: cobra.NoArgs,
	RunE: runStage(domain.StageIngest),
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Summarise recent metrics into a SUMMARY report",
	Long: `Reads the most recent page_metrics records, computes total clicks,
impressions and CTR, and stores them as a SUMMARY recommendation.`,
	Args: cobra.NoArgs,
	RunE: runStage(domain.StageAggregate),
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate meta recommendations with a language model",
	Long: `Asks the language model for a meta title, meta description and schema
suggestion for each of the oldest stored metric records. Replies that are not
valid JSON are reported and skipped; the rest are saved.`,
	Args: cobra.NoArgs,
	RunE: runStage(domain.StageRecommend),
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run ingest, aggregate and recommend in order",
	Long:  `Runs every stage in sequence and stops at the first stage that fails.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if pipeline == nil {
			return notConfigured("pipeline")
		}
		reports, err := pipeline.RunAll(cmd.Context())
		if err == nil {
			for _, report := range reports {
				printReport(cmd, report)
			}
			return nil
		}
		// The last report belongs to the stage that failed.
		if n := len(reports); n > 0 {
			for _, report := range reports[:n-1] {
				printReport(cmd, report)
			}
			cmd.Printf("%s: failed after %d written\n", reports[n-1].Stage, reports[n-1].Written)
		}
		return fmt.Errorf("run failed: %w", err)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(runCmd)
}

func runStage(stage domain.Stage) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if pipeline == nil {
			return notConfigured("pipeline")
		}
		report, err := pipeline.RunStage(cmd.Context(), stage)
		if err != nil {
			return fmt.Errorf("%s failed: %w", stage, err)
		}
		printReport(cmd, report)
		return nil
	}
}

// printReport prints the confirmation line. Skipped replies have already
// been logged as warnings by the stage.
func printReport(cmd *cobra.Command, report *domain.StageReport) {
	if report != nil {
		cmd.Println(report.Message())
	}
}
