package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// PageMetricsInput is the input schema for the page_metrics tool.
type PageMetricsInput struct {
	URL  string `json:"url" jsonschema:"the page URL exactly as reported by Search Console"`
	Days int    `json:"days,omitempty" jsonschema:"trailing window in days (default 30)"`
}

// PageMetricsOutput is the output schema for the page_metrics tool.
type PageMetricsOutput struct {
	URL         string         `json:"url"`
	Since       string         `json:"since"`
	Days        int            `json:"days"`
	Clicks      int64          `json:"clicks"`
	Impressions int64          `json:"impressions"`
	CTR         float64        `json:"ctr"`
	Records     []MetricOutput `json:"records"`
}

// MetricOutput is one stored metric row.
type MetricOutput struct {
	Date        string   `json:"date"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Queries     []string `json:"queries"`
}

// RecommendationInput is the input schema for the latest_recommendation tool.
type RecommendationInput struct {
	URL string `json:"url" jsonschema:"the page URL, or SUMMARY for the aggregate report"`
}

// RecommendationOutput is the output schema for recommendation lookups.
type RecommendationOutput struct {
	Found           bool            `json:"found"`
	URL             string          `json:"url"`
	Date            string          `json:"date,omitempty"`
	MetaTitle       string          `json:"meta_title,omitempty"`
	MetaDescription string          `json:"meta_description,omitempty"`
	Schema          json.RawMessage `json:"schema,omitempty"`
	Confidence      float64         `json:"confidence,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "page_metrics",
		Description: "Stored Search Console clicks, impressions and CTR for a page over recent days",
	}, s.handlePageMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "latest_recommendation",
		Description: "The newest generated meta title, description and schema for a page",
	}, s.handleLatestRecommendation)
}

// handlePageMetrics handles the page_metrics tool invocation.
func (s *Server) handlePageMetrics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageMetricsInput,
) (*mcp.CallToolResult, PageMetricsOutput, error) {
	insight, err := s.ports.Insights.PageMetrics(ctx, input.URL, input.Days)
	if err != nil {
		return nil, PageMetricsOutput{}, err
	}

	output := PageMetricsOutput{
		URL:         insight.URL,
		Since:       domain.FormatDate(insight.Since),
		Days:        insight.Days,
		Clicks:      insight.Totals.Clicks,
		Impressions: insight.Totals.Impressions,
		CTR:         insight.Totals.CTR,
		Records:     make([]MetricOutput, len(insight.Records)),
	}
	for i, rec := range insight.Records {
		output.Records[i] = MetricOutput{
			Date:        domain.FormatDate(rec.Date),
			Impressions: rec.Impressions,
			Clicks:      rec.Clicks,
			Queries:     rec.Queries,
		}
	}

	return nil, output, nil
}

// handleLatestRecommendation handles the latest_recommendation tool invocation.
// A page without recommendations is not an error; Found is false.
func (s *Server) handleLatestRecommendation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecommendationInput,
) (*mcp.CallToolResult, RecommendationOutput, error) {
	rec, err := s.ports.Insights.LatestRecommendation(ctx, input.URL)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, RecommendationOutput{URL: input.URL}, nil
	}
	if err != nil {
		return nil, RecommendationOutput{}, err
	}
	return nil, toRecommendationOutput(rec), nil
}

func toRecommendationOutput(rec *domain.Recommendation) RecommendationOutput {
	return RecommendationOutput{
		Found:           true,
		URL:             rec.URL,
		Date:            domain.FormatDate(rec.Date),
		MetaTitle:       rec.MetaTitle,
		MetaDescription: rec.MetaDescription,
		Schema:          rec.SchemaOrNull(),
		Confidence:      rec.Confidence,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
