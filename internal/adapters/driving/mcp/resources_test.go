package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestHandleSummaryResource(t *testing.T) {
	t.Run("returns latest summary as json", func(t *testing.T) {
		summary := domain.NewSummaryRecommendation(
			time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
			domain.MetricsSummary{Clicks: 20, Impressions: 200, CTR: 10},
		)
		insights := &mockInsightsService{summary: summary}
		server := newTestServer(t, insights)

		result, err := server.handleSummaryResource(context.Background(), makeReadResourceRequest(summaryURI))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Equal(t, summaryURI, result.Contents[0].URI)

		var out RecommendationOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &out))
		assert.Equal(t, domain.SummaryURL, out.URL)
		assert.Equal(t, domain.SummaryTitle, out.MetaTitle)
		assert.Equal(t, "Clicks: 20, Impressions: 200, CTR: 10.0%", out.MetaDescription)
		assert.InDelta(t, 1.0, out.Confidence, 0.0001)
	})

	t.Run("no summary yet", func(t *testing.T) {
		insights := &mockInsightsService{err: domain.ErrNotFound}
		server := newTestServer(t, insights)

		_, err := server.handleSummaryResource(context.Background(), makeReadResourceRequest(summaryURI))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		storeErr := errors.New("db down")
		insights := &mockInsightsService{err: storeErr}
		server := newTestServer(t, insights)

		_, err := server.handleSummaryResource(context.Background(), makeReadResourceRequest(summaryURI))
		assert.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "getting latest summary")
	})
}
