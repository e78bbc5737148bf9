package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// timestampLayout is fixed-width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.searchlift/data/searchlift.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".searchlift", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "searchlift.db")

	// Open database with WAL mode so the scheduler and CLI can share it
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// MetricsStore returns a MetricsStore interface backed by this store.
func (s *Store) MetricsStore() driven.MetricsStore {
	return &metricsStore{store: s}
}

// RecommendationStore returns a RecommendationStore interface backed by this store.
func (s *Store) RecommendationStore() driven.RecommendationStore {
	return &recommendationStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Metrics Store ====================

// metricsStore implements driven.MetricsStore.
type metricsStore struct {
	store *Store
}

var _ driven.MetricsStore = (*metricsStore)(nil)

// SaveMetric writes a record under the given dedup policy.
func (s *metricsStore) SaveMetric(
	ctx context.Context, rec *domain.MetricRecord, policy domain.DedupPolicy,
) (domain.WriteOutcome, error) {
	if rec == nil {
		return domain.WriteSkipped, domain.ErrInvalidInput
	}
	if err := rec.Validate(); err != nil {
		return domain.WriteSkipped, err
	}

	queries, err := encodeQueries(rec.Queries)
	if err != nil {
		return domain.WriteSkipped, err
	}
	date := domain.FormatDate(rec.Date)

	switch policy {
	case domain.DedupSkip:
		var exists int
		err := s.store.db.QueryRowContext(ctx, `
			SELECT 1 FROM page_metrics WHERE url = ? AND date = ? AND queries = ? LIMIT 1
		`, rec.URL, date, queries).Scan(&exists)
		if err == nil {
			return domain.WriteSkipped, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.WriteSkipped, fmt.Errorf("checking metric: %w", err)
		}

	case domain.DedupOverwrite:
		var createdAt string
		err := s.store.db.QueryRowContext(ctx, `
			UPDATE page_metrics SET impressions = ?, clicks = ?
			WHERE id = (
				SELECT MIN(id) FROM page_metrics WHERE url = ? AND date = ? AND queries = ?
			)
			RETURNING id, created_at
		`, rec.Impressions, rec.Clicks, rec.URL, date, queries).Scan(&rec.ID, &createdAt)
		if err == nil {
			rec.CreatedAt = parseTimestamp(createdAt)
			return domain.WriteReplaced, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.WriteSkipped, fmt.Errorf("overwriting metric: %w", err)
		}
	}

	createdAt := s.store.now().UTC()
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO page_metrics (url, date, impressions, clicks, queries, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.URL, date, rec.Impressions, rec.Clicks, queries, createdAt.Format(timestampLayout))
	if err != nil {
		return domain.WriteSkipped, fmt.Errorf("inserting metric: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.WriteSkipped, fmt.Errorf("reading metric id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return domain.WriteInserted, nil
}

// ListMetrics returns records matching the query.
func (s *metricsStore) ListMetrics(ctx context.Context, q driven.MetricQuery) ([]domain.MetricRecord, error) {
	var (
		where []string
		args  []any
	)
	if q.URL != "" {
		where = append(where, "url = ?")
		args = append(args, q.URL)
	}
	if !q.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, domain.FormatDate(q.Since))
	}

	query := "SELECT id, url, date, impressions, clicks, queries, created_at FROM page_metrics"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if q.Order == driven.OrderMostRecent {
		query += " ORDER BY date DESC, id DESC"
	} else {
		query += " ORDER BY id ASC"
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	var records []domain.MetricRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec                    domain.MetricRecord
			date, queries, created string
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &date, &rec.Impressions, &rec.Clicks, &queries, &created); err != nil {
			return nil, fmt.Errorf("scanning metric: %w", err)
		}
		if rec.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parsing metric date %q: %w", date, err)
		}
		if err := json.Unmarshal([]byte(queries), &rec.Queries); err != nil {
			return nil, fmt.Errorf("decoding queries of metric %d: %w", rec.ID, err)
		}
		rec.CreatedAt = parseTimestamp(created)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metrics: %w", err)
	}

	return records, nil
}

// CountMetrics returns the total number of stored records.
func (s *metricsStore) CountMetrics(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page_metrics").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting metrics: %w", err)
	}
	return n, nil
}

// ==================== Recommendation Store ====================

// recommendationStore implements driven.RecommendationStore.
type recommendationStore struct {
	store *Store
}

var _ driven.RecommendationStore = (*recommendationStore)(nil)

// SaveRecommendation appends a record.
func (s *recommendationStore) SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	if rec == nil || rec.URL == "" {
		return domain.ErrInvalidInput
	}

	schema := rec.SchemaOrNull()
	if !json.Valid(schema) {
		return fmt.Errorf("%w: schema is not valid JSON", domain.ErrInvalidInput)
	}

	createdAt := s.store.now().UTC()
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ai_recommendations (url, date, meta_title, meta_description, schema, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.URL, domain.FormatDate(rec.Date), nullString(rec.MetaTitle), nullString(rec.MetaDescription),
		string(schema), rec.Confidence, createdAt.Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("inserting recommendation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading recommendation id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

// LatestRecommendation returns the newest record for url.
func (s *recommendationStore) LatestRecommendation(ctx context.Context, url string) (*domain.Recommendation, error) {
	recs, err := s.ListRecommendations(ctx, driven.RecommendationQuery{URL: url, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &recs[0], nil
}

// ListRecommendations returns records newest first.
func (s *recommendationStore) ListRecommendations(
	ctx context.Context, q driven.RecommendationQuery,
) ([]domain.Recommendation, error) {
	query := `SELECT id, url, date, meta_title, meta_description, schema, confidence, created_at
		FROM ai_recommendations`
	var args []any
	if q.URL != "" {
		query += " WHERE url = ?"
		args = append(args, q.URL)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec                  domain.Recommendation
			date, schema, create string
			title, description   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &date, &title, &description,
			&schema, &rec.Confidence, &create); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		if rec.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parsing recommendation date %q: %w", date, err)
		}
		rec.MetaTitle = title.String
		rec.MetaDescription = description.String
		rec.Schema = json.RawMessage(schema)
		rec.CreatedAt = parseTimestamp(create)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recommendations: %w", err)
	}

	return recs, nil
}

// ==================== Helper Functions ====================

// encodeQueries serialises queries as a JSON array; nil encodes as [].
func encodeQueries(queries []string) (string, error) {
	if queries == nil {
		queries = []string{}
	}
	data, err := json.Marshal(queries)
	if err != nil {
		return "", fmt.Errorf("encoding queries: %w", err)
	}
	return string(data), nil
}

// parseTimestamp parses a stored timestamp, returning zero time if invalid.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
