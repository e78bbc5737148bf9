package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// MetricOrder selects how ListMetrics orders its result.
type MetricOrder int

const (
	// OrderInsertion returns records by insertion sequence, oldest first.
	OrderInsertion MetricOrder = iota

	// OrderMostRecent returns records by date descending, ties broken by
	// insertion sequence descending.
	OrderMostRecent
)

// MetricQuery filters and bounds a metrics read.
type MetricQuery struct {
	// URL restricts results to one page when non-empty.
	URL string

	// Since restricts results to records dated on or after this day when non-zero.
	Since time.Time

	// Order selects the result ordering.
	Order MetricOrder

	// Limit caps the number of records. Zero means no limit.
	Limit int
}

// MetricsStore persists page_metrics rows.
// Each call is an independent write; there is no multi-record transaction.
type MetricsStore interface {
	// SaveMetric writes a record under the given dedup policy.
	// On insert or replace, rec.ID and rec.CreatedAt are populated.
	SaveMetric(ctx context.Context, rec *domain.MetricRecord, policy domain.DedupPolicy) (domain.WriteOutcome, error)

	// ListMetrics returns records matching the query.
	ListMetrics(ctx context.Context, q MetricQuery) ([]domain.MetricRecord, error)

	// CountMetrics returns the total number of stored records.
	CountMetrics(ctx context.Context) (int, error)
}
