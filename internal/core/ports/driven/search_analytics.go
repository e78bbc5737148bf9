package driven

import (
	"context"
	"time"
)

// Search analytics dimensions.
const (
	DimensionPage  = "page"
	DimensionQuery = "query"
)

// AnalyticsQuery is a search analytics request over an inclusive date range.
type AnalyticsQuery struct {
	StartDate  time.Time
	EndDate    time.Time
	Dimensions []string
	RowLimit   int
}

// AnalyticsRow is one row of a search analytics response.
// Keys are ordered as the requested dimensions.
type AnalyticsRow struct {
	Keys        []string
	Impressions float64
	Clicks      float64
}

// SearchAnalytics queries a search engine's performance data for a site.
//
// Implementations may include:
//   - Google Search Console (searchconsole/v1)
type SearchAnalytics interface {
	// Query runs a search analytics query for siteURL.
	// A response without rows returns an empty slice and no error.
	Query(ctx context.Context, siteURL string, q AnalyticsQuery) ([]AnalyticsRow, error)
}
