package domain

import (
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for metric and
// recommendation dates.
const DateLayout = "2006-01-02"

// MetricRecord is one row of search performance data for a page.
// Records are created by ingestion and read by aggregation and recommendation.
type MetricRecord struct {
	// ID is the store-assigned insertion sequence. Zero until saved.
	ID int64

	// URL is the page the metrics belong to. Must be non-empty.
	URL string

	// Date is the calendar day the record was ingested for.
	Date time.Time

	// Impressions is how often the page appeared in search results.
	Impressions int64

	// Clicks is how often the page was clicked from search results.
	// Semantically <= Impressions, not enforced.
	Clicks int64

	// Queries are the search queries the row was aggregated over.
	Queries []string

	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
}

// Validate checks the fields the store relies on.
func (m *MetricRecord) Validate() error {
	if strings.TrimSpace(m.URL) == "" {
		return ErrInvalidInput
	}
	if m.Date.IsZero() || m.Impressions < 0 || m.Clicks < 0 {
		return ErrInvalidInput
	}
	return nil
}

// MetricKey is the natural uniqueness key of a metric record.
type MetricKey struct {
	URL   string
	Date  string
	Query string
}

// Key returns the (url, date, query) key used by the dedup policies.
func (m *MetricRecord) Key() MetricKey {
	return MetricKey{
		URL:   m.URL,
		Date:  FormatDate(m.Date),
		Query: strings.Join(m.Queries, ","),
	}
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the calendar day of t in t's own location, stored as
// UTC midnight. Stages use it for "today" so a run at 23:30 local time is
// dated that day rather than the next UTC day.
func LocalDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
