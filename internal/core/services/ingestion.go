package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.StageRunner = (*IngestionService)(nil)

// IngestionConfig holds the ingestion parameters.
type IngestionConfig struct {
	SiteURL     string
	WindowDays  int
	RowLimit    int
	DedupPolicy domain.DedupPolicy
}

// IngestionService pulls search analytics for a trailing window and stores
// one metric record per (page, query) row.
type IngestionService struct {
	stageBase
	analytics driven.SearchAnalytics
	store     driven.MetricsStore
	cfg       IngestionConfig
}

// NewIngestionService creates an ingestion stage.
// Zero config values fall back to the domain defaults.
func NewIngestionService(
	analytics driven.SearchAnalytics,
	store driven.MetricsStore,
	cfg IngestionConfig,
) *IngestionService {
	if cfg.SiteURL == "" {
		cfg.SiteURL = domain.DefaultSiteURL
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = domain.DefaultWindowDays
	}
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = domain.DefaultRowLimit
	}
	if cfg.DedupPolicy == "" {
		cfg.DedupPolicy = domain.DedupAppend
	}
	return &IngestionService{
		stageBase: newStageBase(domain.StageIngest),
		analytics: analytics,
		store:     store,
		cfg:       cfg,
	}
}

// Run queries the analytics provider for [today-window, today] and writes
// every returned row dated today. Zero rows is a no-op, not an error.
func (s *IngestionService) Run(ctx context.Context) (*domain.StageReport, error) {
	report := s.begin()

	if s.analytics == nil {
		return s.finish(report, fmt.Errorf("%w: search analytics not configured", domain.ErrAnalyticsUnavailable))
	}
	if s.store == nil {
		return s.finish(report, fmt.Errorf("%w: metrics store not configured", domain.ErrStoreUnavailable))
	}

	today := domain.LocalDate(s.now())
	query := driven.AnalyticsQuery{
		StartDate:  today.AddDate(0, 0, -s.cfg.WindowDays),
		EndDate:    today,
		Dimensions: []string{driven.DimensionPage, driven.DimensionQuery},
		RowLimit:   s.cfg.RowLimit,
	}
	logger.Debug("Querying %s from %s to %s (limit %d)",
		s.cfg.SiteURL, domain.FormatDate(query.StartDate), domain.FormatDate(query.EndDate), query.RowLimit)

	rows, err := s.analytics.Query(ctx, s.cfg.SiteURL, query)
	if err != nil {
		return s.finish(report, fmt.Errorf("query search analytics: %w", err))
	}
	report.Fetched = len(rows)

	if len(rows) == 0 {
		logger.Info("No search analytics data found for %s", s.cfg.SiteURL)
		report.NoOp = true
		return s.finish(report, nil)
	}

	// Reject a malformed response before writing anything.
	records := make([]domain.MetricRecord, 0, len(rows))
	for i, row := range rows {
		if len(row.Keys) < 2 {
			return s.finish(report, fmt.Errorf("%w: row %d has %d keys, want page and query",
				domain.ErrMalformedResponse, i, len(row.Keys)))
		}
		records = append(records, domain.MetricRecord{
			URL:         row.Keys[0],
			Date:        today,
			Impressions: int64(row.Impressions),
			Clicks:      int64(row.Clicks),
			Queries:     []string{row.Keys[1]},
		})
	}

	for i := range records {
		rec := &records[i]
		outcome, err := s.store.SaveMetric(ctx, rec, s.cfg.DedupPolicy)
		if err != nil {
			return s.finish(report, fmt.Errorf("save metric for %s: %w", rec.URL, err))
		}
		if outcome == domain.WriteSkipped {
			report.Skipped++
			continue
		}
		report.Written++
	}

	logger.Info("Stored %d of %d rows (%s)", report.Written, report.Fetched, s.cfg.DedupPolicy)
	return s.finish(report, nil)
}
