package driven

import (
	"context"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// RecommendationQuery filters and bounds a recommendations read.
// Results are ordered newest first (created_at, then insertion sequence).
type RecommendationQuery struct {
	// URL restricts results to one page (or domain.SummaryURL) when non-empty.
	URL string

	// Limit caps the number of records. Zero means no limit.
	Limit int
}

// RecommendationStore persists ai_recommendations rows. It is append-only.
type RecommendationStore interface {
	// SaveRecommendation inserts a record and populates rec.ID and rec.CreatedAt.
	SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error

	// LatestRecommendation returns the newest record for url.
	// Returns domain.ErrNotFound if there is none.
	LatestRecommendation(ctx context.Context, url string) (*domain.Recommendation, error)

	// ListRecommendations returns records matching the query.
	ListRecommendations(ctx context.Context, q RecommendationQuery) ([]domain.Recommendation, error)
}
