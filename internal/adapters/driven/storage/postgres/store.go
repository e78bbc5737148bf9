package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

//go:embed schema.sql
var schemaSQL string

// Config configures the connection pool.
type Config struct {
	DatabaseURL string
	MaxConns    int

	// ViaBouncer switches to the simple protocol for transaction poolers
	// that cannot hold prepared statements.
	ViaBouncer bool
}

// Store is a Postgres-backed metrics and recommendation store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the schema exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: database url is required", domain.ErrInvalidInput)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing database url: %w", domain.ErrInvalidInput, err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 2
	}
	poolCfg.MaxConns = int32(cfg.MaxConns) //nolint:gosec // bounded by config validation
	if cfg.ViaBouncer || strings.Contains(cfg.DatabaseURL, "pooler.supabase.com:6543") {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: applying schema: %w", domain.ErrStoreUnavailable, err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// MetricsStore returns a MetricsStore backed by this pool.
func (s *Store) MetricsStore() driven.MetricsStore {
	return &metricsStore{pool: s.pool}
}

// RecommendationStore returns a RecommendationStore backed by this pool.
func (s *Store) RecommendationStore() driven.RecommendationStore {
	return &recommendationStore{pool: s.pool}
}

// ==================== Metrics ====================

type metricsStore struct {
	pool *pgxpool.Pool
}

var _ driven.MetricsStore = (*metricsStore)(nil)

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
		var exists bool
		err := s.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM page_metrics WHERE url = $1 AND date = $2::date AND queries = $3::jsonb
			)`, rec.URL, date, queries).Scan(&exists)
		if err != nil {
			return domain.WriteSkipped, wrapUnavailable("checking metric", err)
		}
		if exists {
			return domain.WriteSkipped, nil
		}

	case domain.DedupOverwrite:
		err := s.pool.QueryRow(ctx, `
			UPDATE page_metrics SET impressions = $1, clicks = $2
			WHERE id = (
				SELECT MIN(id) FROM page_metrics WHERE url = $3 AND date = $4::date AND queries = $5::jsonb
			)
			RETURNING id, created_at`,
			rec.Impressions, rec.Clicks, rec.URL, date, queries).Scan(&rec.ID, &rec.CreatedAt)
		if err == nil {
			return domain.WriteReplaced, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.WriteSkipped, wrapUnavailable("overwriting metric", err)
		}
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO page_metrics (url, date, impressions, clicks, queries)
		VALUES ($1, $2::date, $3, $4, $5::jsonb)
		RETURNING id, created_at`,
		rec.URL, date, rec.Impressions, rec.Clicks, queries).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return domain.WriteSkipped, wrapUnavailable("inserting metric", err)
	}
	return domain.WriteInserted, nil
}

func (s *metricsStore) ListMetrics(ctx context.Context, q driven.MetricQuery) ([]domain.MetricRecord, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, url, date, impressions, clicks, queries::text, created_at FROM page_metrics WHERE true`)

	var args []any
	if q.URL != "" {
		args = append(args, q.URL)
		fmt.Fprintf(&sb, " AND url = $%d", len(args))
	}
	if !q.Since.IsZero() {
		args = append(args, domain.FormatDate(q.Since))
		fmt.Fprintf(&sb, " AND date >= $%d::date", len(args))
	}
	if q.Order == driven.OrderMostRecent {
		sb.WriteString(" ORDER BY date DESC, id DESC")
	} else {
		sb.WriteString(" ORDER BY id ASC")
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, wrapUnavailable("querying metrics", err)
	}
	defer rows.Close()

	var out []domain.MetricRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec     domain.MetricRecord
			queries string
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Date, &rec.Impressions, &rec.Clicks,
			&queries, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning metric: %w", err)
		}
		if err := json.Unmarshal([]byte(queries), &rec.Queries); err != nil {
			return nil, fmt.Errorf("decoding queries for metric %d: %w", rec.ID, err)
		}
		rec.Date = domain.DateOf(rec.Date)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable("iterating metrics", err)
	}
	return out, nil
}

func (s *metricsStore) CountMetrics(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM page_metrics`).Scan(&n); err != nil {
		return 0, wrapUnavailable("counting metrics", err)
	}
	return n, nil
}

// ==================== Recommendations ====================

type recommendationStore struct {
	pool *pgxpool.Pool
}

var _ driven.RecommendationStore = (*recommendationStore)(nil)

func (s *recommendationStore) SaveRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	if rec == nil || rec.URL == "" {
		return domain.ErrInvalidInput
	}
	schema := rec.SchemaOrNull()
	if !json.Valid(schema) {
		return fmt.Errorf("%w: schema is not valid JSON", domain.ErrInvalidInput)
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO ai_recommendations (url, date, meta_title, meta_description, schema, confidence)
		VALUES ($1, $2::date, $3, $4, $5::jsonb, $6)
		RETURNING id, created_at`,
		rec.URL, domain.FormatDate(rec.Date), nullText(rec.MetaTitle), nullText(rec.MetaDescription),
		string(schema), rec.Confidence).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return wrapUnavailable("inserting recommendation", err)
	}
	return nil
}

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

func (s *recommendationStore) ListRecommendations(
	ctx context.Context, q driven.RecommendationQuery,
) ([]domain.Recommendation, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT id, url, date, COALESCE(meta_title, ''), COALESCE(meta_description, ''),
		schema::text, confidence, created_at FROM ai_recommendations`)

	var args []any
	if q.URL != "" {
		args = append(args, q.URL)
		sb.WriteString(" WHERE url = $1")
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, wrapUnavailable("querying recommendations", err)
	}
	defer rows.Close()

	var out []domain.Recommendation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec    domain.Recommendation
			schema string
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Date, &rec.MetaTitle, &rec.MetaDescription,
			&schema, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		rec.Date = domain.DateOf(rec.Date)
		rec.Schema = json.RawMessage(schema)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable("iterating recommendations", err)
	}
	return out, nil
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

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func wrapUnavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
