package mcp

import (
	"context"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// mockInsightsService is a mock implementation of driving.InsightsService.
type mockInsightsService struct {
	insight  *domain.PageInsight
	rec      *domain.Recommendation
	summary  *domain.Recommendation
	recs     []domain.Recommendation
	err      error
	lastURL  string
	lastDays int
}

func (m *mockInsightsService) PageMetrics(_ context.Context, url string, days int) (*domain.PageInsight, error) {
	m.lastURL = url
	m.lastDays = days
	return m.insight, m.err
}

func (m *mockInsightsService) LatestRecommendation(_ context.Context, url string) (*domain.Recommendation, error) {
	m.lastURL = url
	return m.rec, m.err
}

func (m *mockInsightsService) LatestSummary(_ context.Context) (*domain.Recommendation, error) {
	return m.summary, m.err
}

func (m *mockInsightsService) Recommendations(_ context.Context, _ string, _ int) ([]domain.Recommendation, error) {
	return m.recs, m.err
}
