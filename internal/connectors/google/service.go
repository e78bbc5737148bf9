package google

import (
	"context"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"
)

// NewSearchConsoleService creates a Search Console API service using the
// provided TokenSource. Extra options are applied after the token source.
func NewSearchConsoleService(
	ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption,
) (*searchconsole.Service, error) {
	return searchconsole.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}
