package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// Output formats for report commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// defaultHistoryLimit caps `report history` when --limit is not given.
const defaultHistoryLimit = 20

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle().Bold(true)
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show stored metrics and recommendations",
	Long: `Reads what the pipeline has stored. Nothing is fetched or generated.

Use --output json or --output yaml for machine-readable output.`,
}

var reportMetricsCmd = &cobra.Command{
	Use:   "metrics <url>",
	Short: "Show clicks, impressions and CTR for a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportMetrics,
}

var reportLatestCmd = &cobra.Command{
	Use:   "latest <url>",
	Short: "Show the newest recommendation for a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportLatest,
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the newest weekly summary",
	Args:  cobra.NoArgs,
	RunE:  runReportSummary,
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history [url]",
	Short: "List recent recommendations, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportHistory,
}

func init() {
	reportCmd.PersistentFlags().StringP("output", "o", formatText, "Output format: text, json or yaml")
	reportMetricsCmd.Flags().Int("days", 30, "Trailing window in days")
	reportHistoryCmd.Flags().Int("limit", defaultHistoryLimit, "Maximum number of recommendations")

	reportCmd.AddCommand(reportMetricsCmd)
	reportCmd.AddCommand(reportLatestCmd)
	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportHistoryCmd)
	rootCmd.AddCommand(reportCmd)
}

// metricView is the serialised form of a metric record.
type metricView struct {
	Date        string   `json:"date" yaml:"date"`
	Impressions int64    `json:"impressions" yaml:"impressions"`
	Clicks      int64    `json:"clicks" yaml:"clicks"`
	Queries     []string `json:"queries" yaml:"queries"`
}

// pageView is the serialised form of a page insight.
type pageView struct {
	URL         string       `json:"url" yaml:"url"`
	Since       string       `json:"since" yaml:"since"`
	Days        int          `json:"days" yaml:"days"`
	Clicks      int64        `json:"clicks" yaml:"clicks"`
	Impressions int64        `json:"impressions" yaml:"impressions"`
	CTR         float64      `json:"ctr" yaml:"ctr"`
	Records     []metricView `json:"records" yaml:"records"`
}

// recommendationView is the serialised form of a recommendation.
type recommendationView struct {
	ID              int64   `json:"id" yaml:"id"`
	URL             string  `json:"url" yaml:"url"`
	Date            string  `json:"date" yaml:"date"`
	MetaTitle       string  `json:"meta_title" yaml:"meta_title"`
	MetaDescription string  `json:"meta_description" yaml:"meta_description"`
	Schema          any     `json:"schema" yaml:"schema"`
	Confidence      float64 `json:"confidence" yaml:"confidence"`
	CreatedAt       string  `json:"created_at" yaml:"created_at"`
}

func newPageView(insight *domain.PageInsight) pageView {
	view := pageView{
		URL:         insight.URL,
		Since:       domain.FormatDate(insight.Since),
		Days:        insight.Days,
		Clicks:      insight.Totals.Clicks,
		Impressions: insight.Totals.Impressions,
		CTR:         insight.Totals.CTR,
		Records:     make([]metricView, len(insight.Records)),
	}
	for i, r := range insight.Records {
		view.Records[i] = metricView{
			Date:        domain.FormatDate(r.Date),
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
			Queries:     r.Queries,
		}
	}
	return view
}

func newRecommendationView(rec *domain.Recommendation) recommendationView {
	// Decode the schema so YAML renders it as a mapping rather than a string.
	var schema any
	if err := json.Unmarshal(rec.SchemaOrNull(), &schema); err != nil {
		schema = string(rec.Schema)
	}
	return recommendationView{
		ID:              rec.ID,
		URL:             rec.URL,
		Date:            domain.FormatDate(rec.Date),
		MetaTitle:       rec.MetaTitle,
		MetaDescription: rec.MetaDescription,
		Schema:          schema,
		Confidence:      rec.Confidence,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func runReportMetrics(cmd *cobra.Command, args []string) error {
	if insightsService == nil {
		return notConfigured("insights service")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	days, err := cmd.Flags().GetInt("days")
	if err != nil {
		return err
	}

	insight, err := insightsService.PageMetrics(cmd.Context(), args[0], days)
	if err != nil {
		return fmt.Errorf("failed to get metrics: %w", err)
	}
	view := newPageView(insight)
	if format != formatText {
		return encode(cmd.OutOrStdout(), format, view)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(view.URL))
	fmt.Fprintf(out, "%s %s (%d days)\n", labelStyle.Render("Since:"), view.Since, view.Days)
	fmt.Fprintf(out, "%s %s  %s %s  %s %s\n\n",
		labelStyle.Render("Clicks:"), valueStyle.Render(fmt.Sprint(view.Clicks)),
		labelStyle.Render("Impressions:"), valueStyle.Render(fmt.Sprint(view.Impressions)),
		labelStyle.Render("CTR:"), valueStyle.Render(fmt.Sprintf("%.2f%%", view.CTR)))

	if len(view.Records) == 0 {
		fmt.Fprintln(out, "No metrics stored for this page in the window.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	writeRow(w, "DATE", "IMPRESSIONS", "CLICKS", "QUERIES")
	for _, r := range view.Records {
		writeRow(w, r.Date, fmt.Sprint(r.Impressions), fmt.Sprint(r.Clicks), strings.Join(r.Queries, ", "))
	}
	return nil
}

func runReportLatest(cmd *cobra.Command, args []string) error {
	if insightsService == nil {
		return notConfigured("insights service")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	rec, err := insightsService.LatestRecommendation(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get recommendation: %w", err)
	}
	return printRecommendation(cmd, format, rec)
}

func runReportSummary(cmd *cobra.Command, _ []string) error {
	if insightsService == nil {
		return notConfigured("insights service")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	rec, err := insightsService.LatestSummary(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}
	return printRecommendation(cmd, format, rec)
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	if insightsService == nil {
		return notConfigured("insights service")
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	var url string
	if len(args) > 0 {
		url = args[0]
	}

	recs, err := insightsService.Recommendations(cmd.Context(), url, limit)
	if err != nil {
		return fmt.Errorf("failed to list recommendations: %w", err)
	}
	views := make([]recommendationView, len(recs))
	for i := range recs {
		views[i] = newRecommendationView(&recs[i])
	}
	if format != formatText {
		return encode(cmd.OutOrStdout(), format, views)
	}

	if len(views) == 0 {
		cmd.Println("No recommendations stored yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()
	writeRow(w, "ID", "DATE", "URL", "META TITLE")
	for _, v := range views {
		writeRow(w, fmt.Sprint(v.ID), v.Date, v.URL, v.MetaTitle)
	}
	return nil
}

func printRecommendation(cmd *cobra.Command, format string, rec *domain.Recommendation) error {
	view := newRecommendationView(rec)
	if format != formatText {
		return encode(cmd.OutOrStdout(), format, view)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(view.URL))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Date:"), view.Date)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Title:"), valueStyle.Render(view.MetaTitle))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Description:"), view.MetaDescription)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Schema:"), string(rec.SchemaOrNull()))
	fmt.Fprintf(out, "%s %.2f\n", labelStyle.Render("Confidence:"), view.Confidence)
	return nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	switch format {
	case formatText, formatJSON, formatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, format)
	}
}

// encode writes v as indented JSON or YAML.
func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeRow(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}
