package driving

import (
	"context"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// InsightsService answers read-only questions over stored pipeline output.
type InsightsService interface {
	// PageMetrics returns the stored metrics of a page over the last days.
	PageMetrics(ctx context.Context, url string, days int) (*domain.PageInsight, error)

	// LatestRecommendation returns the newest recommendation for a page.
	LatestRecommendation(ctx context.Context, url string) (*domain.Recommendation, error)

	// LatestSummary returns the newest SUMMARY record.
	LatestSummary(ctx context.Context) (*domain.Recommendation, error)

	// Recommendations lists recent recommendations, newest first.
	Recommendations(ctx context.Context, url string, limit int) ([]domain.Recommendation, error)
}
