// Package driving holds the interfaces the CLI, the scheduler daemon and the
// MCP server call into: stage runners, the pipeline, read-only insights and
// settings.
//
// internal/core/services implements every one of them.
package driving
