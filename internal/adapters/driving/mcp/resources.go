package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for searchlift resources.
	uriScheme = "searchlift://"

	// summaryURI is the latest aggregate report.
	summaryURI = uriScheme + "summary/latest"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "latest-summary",
		Description: "The most recent weekly SEO summary (clicks, impressions, CTR)",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// handleSummaryResource returns the newest SUMMARY recommendation.
func (s *Server) handleSummaryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	rec, err := s.ports.Insights.LatestSummary(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest summary: %w", err)
	}

	data, err := json.MarshalIndent(toRecommendationOutput(rec), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling summary: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
