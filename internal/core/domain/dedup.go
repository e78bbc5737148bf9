package domain

// DedupPolicy controls what ingestion does when a metric with the same
// (url, date, query) key already exists.
type DedupPolicy string

// Available dedup policies.
const (
	// DedupAppend always inserts. Re-ingesting an overlapping window
	// produces duplicate rows.
	DedupAppend DedupPolicy = "append"

	// DedupSkip leaves the existing row untouched and drops the new one.
	DedupSkip DedupPolicy = "skip"

	// DedupOverwrite replaces the counts of the existing row.
	DedupOverwrite DedupPolicy = "overwrite"
)

// IsValid returns true if the policy is recognised.
func (p DedupPolicy) IsValid() bool {
	switch p {
	case DedupAppend, DedupSkip, DedupOverwrite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p DedupPolicy) String() string {
	return string(p)
}

// WriteOutcome reports what a store did with a single metric write.
type WriteOutcome int

// Possible write outcomes.
const (
	WriteInserted WriteOutcome = iota
	WriteSkipped
	WriteReplaced
)

// String returns the string representation.
func (o WriteOutcome) String() string {
	switch o {
	case WriteInserted:
		return "inserted"
	case WriteSkipped:
		return "skipped"
	case WriteReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}
