// Package mcp provides an MCP (Model Context Protocol) server adapter for searchlift.
// It lets AI assistants read stored page metrics and recommendations.
// The server is read-only; it never runs pipeline stages.
package mcp

import "errors"

// ErrMissingInsightsService is returned when the insights service is not provided.
var ErrMissingInsightsService = errors.New("mcp: insights service is required")
