package domain

import (
	"encoding/json"
	"time"
)

// Recommendation policy constants.
const (
	// SummaryURL marks an aggregate report rather than a per-page recommendation.
	SummaryURL = "SUMMARY"

	// SummaryTitle is the meta title stored on every aggregate report.
	SummaryTitle = "Weekly SEO Summary"

	// ConfidenceSummary is the confidence of deterministic summaries.
	ConfidenceSummary = 1.0

	// ConfidenceGenerated is the confidence of model-generated suggestions.
	// It is a fixed policy value, not derived from the model output.
	ConfidenceGenerated = 0.95
)

// Schema markers.
var (
	// EmptySchema is stored when there is no structured-data suggestion.
	EmptySchema = json.RawMessage(`{}`)

	// NullSchema is stored when the generator omitted the schema key.
	NullSchema = json.RawMessage(`null`)
)

// Recommendation is one generated insight: either suggested metadata for a
// page or the aggregate SUMMARY report.
type Recommendation struct {
	// ID is the store-assigned insertion sequence. Zero until saved.
	ID int64

	// URL is a page URL or SummaryURL.
	URL string

	// Date is the calendar day of the run that produced the record.
	Date time.Time

	// MetaTitle is the suggested title, intended <= 60 characters.
	MetaTitle string

	// MetaDescription is the suggested description, intended <= 155 characters.
	// For summaries it holds the human-readable totals line.
	MetaDescription string

	// Schema is a suggested structured-data update as raw JSON.
	Schema json.RawMessage

	// Confidence is in [0,1]; one of the Confidence* constants.
	Confidence float64

	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
}

// IsSummary returns true for aggregate reports.
func (r *Recommendation) IsSummary() bool {
	return r.URL == SummaryURL
}

// SchemaOrNull returns the schema, substituting NullSchema for an empty value.
func (r *Recommendation) SchemaOrNull() json.RawMessage {
	if len(r.Schema) == 0 {
		return NullSchema
	}
	return r.Schema
}

// NewSummaryRecommendation builds the SUMMARY record for an aggregate.
func NewSummaryRecommendation(date time.Time, summary MetricsSummary) *Recommendation {
	return &Recommendation{
		URL:             SummaryURL,
		Date:            LocalDate(date),
		MetaTitle:       SummaryTitle,
		MetaDescription: summary.Description(),
		Schema:          EmptySchema,
		Confidence:      ConfidenceSummary,
	}
}
