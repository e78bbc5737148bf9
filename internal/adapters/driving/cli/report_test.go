package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

func testDate(s string) time.Time {
	d, _ := domain.ParseDate(s)
	return d
}

func testInsight() *domain.PageInsight {
	return &domain.PageInsight{
		URL:   "https://example.com/a",
		Days:  7,
		Since: testDate("2024-05-01"),
		Records: []domain.MetricRecord{
			{URL: "https://example.com/a", Date: testDate("2024-05-02"), Impressions: 100, Clicks: 10, Queries: []string{"red shoes"}},
		},
		Totals: domain.MetricsSummary{Records: 1, Clicks: 10, Impressions: 100, CTR: 10},
	}
}

func testRecommendation() *domain.Recommendation {
	return &domain.Recommendation{
		ID:              7,
		URL:             "https://example.com/a",
		Date:            testDate("2024-05-03"),
		MetaTitle:       "Red Shoes",
		MetaDescription: "Shop red shoes.",
		Schema:          json.RawMessage(`{"@type":"Product"}`),
		Confidence:      domain.ConfidenceGenerated,
		CreatedAt:       time.Date(2024, 5, 3, 9, 30, 0, 0, time.UTC),
	}
}

func TestReportMetrics_Text(t *testing.T) {
	insights := &mockInsightsService{insight: testInsight()}
	withServices(t, Services{Insights: insights})

	out, _, err := execute(t, context.Background(), "report", "metrics", "https://example.com/a", "--days", "7")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", insights.lastURL)
	assert.Equal(t, 7, insights.lastDays)
	assert.Contains(t, out, "2024-05-02")
	assert.Contains(t, out, "red shoes")
	assert.Contains(t, out, "10.00%")
}

func TestReportMetrics_DefaultDays(t *testing.T) {
	insights := &mockInsightsService{insight: testInsight()}
	withServices(t, Services{Insights: insights})

	_, _, err := execute(t, context.Background(), "report", "metrics", "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, 30, insights.lastDays)
}

func TestReportMetrics_JSON(t *testing.T) {
	withServices(t, Services{Insights: &mockInsightsService{insight: testInsight()}})

	out, _, err := execute(t, context.Background(), "report", "metrics", "https://example.com/a", "-o", "json")
	require.NoError(t, err)

	var view pageView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, int64(10), view.Clicks)
	assert.Equal(t, "2024-05-01", view.Since)
	require.Len(t, view.Records, 1)
	assert.Equal(t, []string{"red shoes"}, view.Records[0].Queries)
}

func TestReportLatest_YAML(t *testing.T) {
	withServices(t, Services{Insights: &mockInsightsService{rec: testRecommendation()}})

	out, _, err := execute(t, context.Background(), "report", "latest", "https://example.com/a", "--output", "yaml")
	require.NoError(t, err)

	var view map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Red Shoes", view["meta_title"])
	assert.Equal(t, "2024-05-03", view["date"])
	assert.Equal(t, map[string]any{"@type": "Product"}, view["schema"])
}

func TestReportLatest_Text(t *testing.T) {
	withServices(t, Services{Insights: &mockInsightsService{rec: testRecommendation()}})

	out, _, err := execute(t, context.Background(), "report", "latest", "https://example.com/a")
	require.NoError(t, err)
	assert.Contains(t, out, "Red Shoes")
	assert.Contains(t, out, "Shop red shoes.")
	assert.Contains(t, out, `{"@type":"Product"}`)
	assert.Contains(t, out, "0.95")
}

func TestReportLatest_NotFound(t *testing.T) {
	withServices(t, Services{Insights: &mockInsightsService{err: domain.ErrNotFound}})

	_, _, err := execute(t, context.Background(), "report", "latest", "https://example.com/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportSummary_JSONNullSchema(t *testing.T) {
	summary := domain.NewSummaryRecommendation(testDate("2024-05-03"),
		domain.MetricsSummary{Clicks: 15, Impressions: 150, CTR: 10})
	summary.Schema = nil
	withServices(t, Services{Insights: &mockInsightsService{summary: summary}})

	out, _, err := execute(t, context.Background(), "report", "summary", "-o", "json")
	require.NoError(t, err)

	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, domain.SummaryURL, view["url"])
	assert.Equal(t, "Clicks: 15, Impressions: 150, CTR: 10.0%", view["meta_description"])
	assert.Nil(t, view["schema"])
}

func TestReportHistory(t *testing.T) {
	insights := &mockInsightsService{recs: []domain.Recommendation{*testRecommendation()}}
	withServices(t, Services{Insights: insights})

	out, _, err := execute(t, context.Background(), "report", "history", "https://example.com/a", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, 5, insights.lastLimit)
	assert.Equal(t, "https://example.com/a", insights.lastURL)
	assert.Contains(t, out, "META TITLE")
	assert.Contains(t, out, "Red Shoes")
}

func TestReportHistory_Empty(t *testing.T) {
	insights := &mockInsightsService{}
	withServices(t, Services{Insights: insights})

	out, _, err := execute(t, context.Background(), "report", "history")
	require.NoError(t, err)
	assert.Equal(t, "", insights.lastURL)
	assert.Equal(t, defaultHistoryLimit, insights.lastLimit)
	assert.Contains(t, out, "No recommendations stored yet.")
}

func TestReport_UnknownFormat(t *testing.T) {
	withServices(t, Services{Insights: &mockInsightsService{}})

	_, _, err := execute(t, context.Background(), "report", "summary", "-o", "xml")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReport_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, _, err := execute(t, context.Background(), "report", "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insights service not configured")
}
