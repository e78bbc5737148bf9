// Package google provides shared infrastructure for Google API clients.
//
// It contains:
//   - Service-account credential loading for server-to-server access
//   - Service factories for creating Google API clients
//   - Error handling for common Google API errors (401, 403, 404, 429)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, google.Credentials{File: path})
//	svc, err := google.NewSearchConsoleService(ctx, ts)
//
// # OAuth2 Scopes
//
// The Search Console client requests only
// https://www.googleapis.com/auth/webmasters.readonly.
// The service account must be added as a user on the Search Console property.
package google
