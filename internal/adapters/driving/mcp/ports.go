package mcp

import (
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server reads from.
type Ports struct {
	// Insights answers metric and recommendation queries.
	Insights driving.InsightsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Insights == nil {
		return ErrMissingInsightsService
	}
	return nil
}
