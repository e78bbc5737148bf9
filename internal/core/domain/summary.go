package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MetricsSummary holds aggregate click-through statistics over a set of records.
type MetricsSummary struct {
	// Records is how many metric records were summed.
	Records int

	// Clicks is the total number of clicks.
	Clicks int64

	// Impressions is the total number of impressions.
	Impressions int64

	// CTR is the click-through rate as a percentage, rounded to 2 decimals.
	CTR float64
}

// Summarise sums clicks and impressions across records.
func Summarise(records []MetricRecord) MetricsSummary {
	s := MetricsSummary{Records: len(records)}
	for i := range records {
		s.Clicks += records[i].Clicks
		s.Impressions += records[i].Impressions
	}
	s.CTR = ClickThroughRate(s.Clicks, s.Impressions)
	return s
}

// ClickThroughRate returns clicks/impressions*100 rounded to 2 decimals.
// Exact ties round to even (3.125 gives 3.12). Zero impressions yields 0.
func ClickThroughRate(clicks, impressions int64) float64 {
	if impressions <= 0 {
		return 0
	}
	pct := float64(clicks) / float64(impressions) * 100
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 2, 64), 64)
	return rounded
}

// Description renders "Clicks: X, Impressions: Y, CTR: Z%".
func (s MetricsSummary) Description() string {
	return fmt.Sprintf("Clicks: %d, Impressions: %d, CTR: %s%%", s.Clicks, s.Impressions, s.formatCTR())
}

// formatCTR prints the rate with at least one decimal place ("10.0", "12.35").
// A summary without impressions prints a bare "0".
func (s MetricsSummary) formatCTR() string {
	if s.Impressions <= 0 {
		return "0"
	}
	out := strconv.FormatFloat(s.CTR, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
