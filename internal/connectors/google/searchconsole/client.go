package searchconsole

import (
	"context"
	"errors"
	"fmt"

	scapi "google.golang.org/api/searchconsole/v1"

	"github.com/custodia-labs/searchlift/internal/connectors/google"
	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.SearchAnalytics = (*Client)(nil)

// DefaultMaxRetries is how many times a rate limited query is retried.
// Rate limiting fails the query at once unless WithMaxRetries raises it.
const DefaultMaxRetries = 0

// Client runs search analytics queries against one Search Console service.
type Client struct {
	svc        *scapi.Service
	limiter    *google.RateLimiter
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimiter replaces the default Search Console rate limiter.
func WithRateLimiter(l *google.RateLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMaxRetries sets how many times a rate limited query is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient wraps a Search Console service.
func NewClient(svc *scapi.Service, opts ...Option) *Client {
	c := &Client{
		svc:        svc,
		limiter:    google.NewRateLimiter(google.SearchConsoleLimits),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query runs a search analytics query for siteURL.
func (c *Client) Query(ctx context.Context, siteURL string, q driven.AnalyticsQuery) ([]driven.AnalyticsRow, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("%w: site url is required", domain.ErrInvalidInput)
	}

	req := &scapi.SearchAnalyticsQueryRequest{
		StartDate:  domain.FormatDate(q.StartDate),
		EndDate:    domain.FormatDate(q.EndDate),
		Dimensions: q.Dimensions,
		RowLimit:   int64(q.RowLimit),
	}

	var (
		resp *scapi.SearchAnalyticsQueryResponse
		err  error
	)
	for attempt := 0; ; attempt++ {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return nil, waitErr
		}

		resp, err = c.svc.Searchanalytics.Query(siteURL, req).Context(ctx).Do()
		if err == nil {
			break
		}
		if !google.IsRateLimited(err) || attempt >= c.maxRetries {
			return nil, mapError(err)
		}

		wait := google.RetryAfter(err)
		logger.Warn("search console: rate limited (attempt %d), retry-after %s", attempt+1, wait)
		c.limiter.Backoff(wait)
	}

	rows := make([]driven.AnalyticsRow, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		if r == nil {
			continue
		}
		rows = append(rows, driven.AnalyticsRow{
			Keys:        r.Keys,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
		})
	}
	logger.Debug("search console: %d rows for %s (%s..%s)", len(rows), siteURL, req.StartDate, req.EndDate)
	return rows, nil
}

// mapError classifies a provider error into the domain taxonomy.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	wrapped := google.WrapError(err)
	switch {
	case errors.Is(wrapped, google.ErrUnauthorized), errors.Is(wrapped, google.ErrForbidden):
		return fmt.Errorf("%w: %w", domain.ErrAuthInvalid, wrapped)
	case errors.Is(wrapped, google.ErrRateLimited):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, wrapped)
	default:
		return fmt.Errorf("%w: %w", domain.ErrAnalyticsUnavailable, wrapped)
	}
}
