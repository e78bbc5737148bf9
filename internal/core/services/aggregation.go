package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// Ensure AggregationService implements the interface.
var _ driving.StageRunner = (*AggregationService)(nil)

// AggregationService summarises the most recent metrics into a SUMMARY
// recommendation.
type AggregationService struct {
	stageBase
	metrics driven.MetricsStore
	recs    driven.RecommendationStore
	limit   int
}

// NewAggregationService creates an aggregation stage over the limit most
// recent records. A non-positive limit uses domain.DefaultAggregateLimit.
func NewAggregationService(
	metrics driven.MetricsStore,
	recs driven.RecommendationStore,
	limit int,
) *AggregationService {
	if limit <= 0 {
		limit = domain.DefaultAggregateLimit
	}
	return &AggregationService{
		stageBase: newStageBase(domain.StageAggregate),
		metrics:   metrics,
		recs:      recs,
		limit:     limit,
	}
}

// Run writes exactly one SUMMARY record, even when no metrics exist.
func (s *AggregationService) Run(ctx context.Context) (*domain.StageReport, error) {
	report := s.begin()

	if s.metrics == nil || s.recs == nil {
		return s.finish(report, fmt.Errorf("%w: store not configured", domain.ErrStoreUnavailable))
	}

	records, err := s.metrics.ListMetrics(ctx, driven.MetricQuery{
		Order: driven.OrderMostRecent,
		Limit: s.limit,
	})
	if err != nil {
		return s.finish(report, fmt.Errorf("list metrics: %w", err))
	}
	report.Fetched = len(records)

	summary := domain.Summarise(records)
	rec := domain.NewSummaryRecommendation(s.now(), summary)
	if err := s.recs.SaveRecommendation(ctx, rec); err != nil {
		return s.finish(report, fmt.Errorf("save summary: %w", err))
	}

	report.Written = 1
	report.Summary = rec.MetaDescription
	logger.Info("Summary over %d records: %s", len(records), rec.MetaDescription)
	return s.finish(report, nil)
}
