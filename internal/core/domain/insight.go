package domain

import "time"

// PageInsight is the metrics history of one page over a trailing window.
type PageInsight struct {
	// URL is the page the records belong to.
	URL string

	// Days is the window length; Since is its first day.
	Days  int
	Since time.Time

	// Records are the stored metrics, oldest first.
	Records []MetricRecord

	// Totals sums the records.
	Totals MetricsSummary
}
