// Package postgres stores page metrics and recommendations in PostgreSQL,
// including hosted databases such as Supabase. The schema matches the
// SQLite store so either backend can serve the pipeline.
package postgres
