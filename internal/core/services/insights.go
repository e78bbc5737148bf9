package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
)

// Ensure InsightsService implements the interface.
var _ driving.InsightsService = (*InsightsService)(nil)

// DefaultInsightDays is the window PageMetrics uses when none is given.
const DefaultInsightDays = 30

// InsightsService reads pipeline output for reports and the MCP server.
type InsightsService struct {
	metrics driven.MetricsStore
	recs    driven.RecommendationStore
	now     func() time.Time
}

// NewInsightsService creates an insights service.
func NewInsightsService(metrics driven.MetricsStore, recs driven.RecommendationStore) *InsightsService {
	return &InsightsService{
		metrics: metrics,
		recs:    recs,
		now:     time.Now,
	}
}

// PageMetrics returns the stored metrics of url over the last days,
// oldest first, with totals and CTR.
func (s *InsightsService) PageMetrics(ctx context.Context, url string, days int) (*domain.PageInsight, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	if days <= 0 {
		days = DefaultInsightDays
	}

	since := domain.LocalDate(s.now()).AddDate(0, 0, -days)
	records, err := s.metrics.ListMetrics(ctx, driven.MetricQuery{
		URL:   url,
		Since: since,
		Order: driven.OrderMostRecent,
	})
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	slices.Reverse(records)

	return &domain.PageInsight{
		URL:     url,
		Days:    days,
		Since:   since,
		Records: records,
		Totals:  domain.Summarise(records),
	}, nil
}

// LatestRecommendation returns the newest recommendation for url.
func (s *InsightsService) LatestRecommendation(ctx context.Context, url string) (*domain.Recommendation, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	return s.recs.LatestRecommendation(ctx, url)
}

// LatestSummary returns the newest SUMMARY record.
func (s *InsightsService) LatestSummary(ctx context.Context) (*domain.Recommendation, error) {
	return s.recs.LatestRecommendation(ctx, domain.SummaryURL)
}

// Recommendations lists recent recommendations for url, or all pages when
// url is empty.
func (s *InsightsService) Recommendations(ctx context.Context, url string, limit int) ([]domain.Recommendation, error) {
	return s.recs.ListRecommendations(ctx, driven.RecommendationQuery{
		URL:   strings.TrimSpace(url),
		Limit: limit,
	})
}
