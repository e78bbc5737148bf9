package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// tickingClock advances one millisecond per call.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Millisecond)
		return current
	}
}

func testMetric(url, date, query string, impressions, clicks int64) *domain.MetricRecord {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return &domain.MetricRecord{URL: url, Date: d, Impressions: impressions, Clicks: clicks, Queries: []string{query}}
}

// ==================== Store Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, store.Path(), "searchlift.db")
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_ReopenKeepsDataAndVersion(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	_, err = store.MetricsStore().SaveMetric(ctx, testMetric("https://example.com/a", "2026-10-18", "q", 1, 0), domain.DedupAppend)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.MetricsStore().CountMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var version int
	require.NoError(t, reopened.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

// ==================== MetricsStore Tests ====================

func TestMetricsStore_SaveAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	metrics := store.MetricsStore()

	rec := testMetric("https://example.com/knee", "2026-10-18", "knee pain", 120, 9)
	out, err := metrics.SaveMetric(ctx, rec, domain.DedupAppend)
	require.NoError(t, err)
	assert.Equal(t, domain.WriteInserted, out)
	assert.Equal(t, int64(1), rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	recs, err := metrics.ListMetrics(ctx, driven.MetricQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://example.com/knee", recs[0].URL)
	assert.Equal(t, "2026-10-18", domain.FormatDate(recs[0].Date))
	assert.Equal(t, int64(120), recs[0].Impressions)
	assert.Equal(t, int64(9), recs[0].Clicks)
	assert.Equal(t, []string{"knee pain"}, recs[0].Queries)
	assert.WithinDuration(t, rec.CreatedAt, recs[0].CreatedAt, time.Microsecond)
}

func TestMetricsStore_QueriesStoredAsJSONArray(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.MetricsStore().SaveMetric(ctx, testMetric("https://example.com/a", "2026-10-18", `say "hi"`, 1, 0), domain.DedupAppend)
	require.NoError(t, err)

	var raw string
	require.NoError(t, store.db.QueryRow("SELECT queries FROM page_metrics").Scan(&raw))
	assert.JSONEq(t, `["say \"hi\""]`, raw)
}

func TestMetricsStore_SaveMetric_Invalid(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.MetricsStore().SaveMetric(context.Background(), nil, domain.DedupAppend)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.MetricsStore().SaveMetric(context.Background(),
		testMetric("https://example.com/a", "2026-10-18", "q", -1, 0), domain.DedupAppend)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMetricsStore_DedupPolicies(t *testing.T) {
	tests := []struct {
		policy      domain.DedupPolicy
		wantOutcome domain.WriteOutcome
		wantCount   int
		wantImpr    int64
	}{
		{domain.DedupAppend, domain.WriteInserted, 2, 10},
		{domain.DedupSkip, domain.WriteSkipped, 1, 10},
		{domain.DedupOverwrite, domain.WriteReplaced, 1, 30},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()
			metrics := store.MetricsStore()

			first := testMetric("https://example.com/a", "2026-10-18", "q", 10, 1)
			_, err := metrics.SaveMetric(ctx, first, tt.policy)
			require.NoError(t, err)

			second := testMetric("https://example.com/a", "2026-10-18", "q", 30, 3)
			out, err := metrics.SaveMetric(ctx, second, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, out)

			count, err := metrics.CountMetrics(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)

			recs, err := metrics.ListMetrics(ctx, driven.MetricQuery{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantImpr, recs[0].Impressions)

			if tt.policy == domain.DedupOverwrite {
				assert.Equal(t, first.ID, second.ID)
			}
		})
	}
}

func TestMetricsStore_DedupKeyIncludesQueryAndDate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	metrics := store.MetricsStore()

	for _, rec := range []*domain.MetricRecord{
		testMetric("https://example.com/a", "2026-10-18", "q1", 1, 0),
		testMetric("https://example.com/a", "2026-10-18", "q2", 1, 0),
		testMetric("https://example.com/a", "2026-10-17", "q1", 1, 0),
	} {
		out, err := metrics.SaveMetric(ctx, rec, domain.DedupSkip)
		require.NoError(t, err)
		assert.Equal(t, domain.WriteInserted, out)
	}
}

func TestMetricsStore_ListMetrics_Ordering(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	metrics := store.MetricsStore()

	for _, rec := range []*domain.MetricRecord{
		testMetric("https://example.com/a", "2026-10-10", "q", 1, 0),
		testMetric("https://example.com/b", "2026-10-18", "q", 1, 0),
		testMetric("https://example.com/c", "2026-10-18", "q", 1, 0),
		testMetric("https://example.com/d", "2026-10-12", "q", 1, 0),
	} {
		_, err := metrics.SaveMetric(ctx, rec, domain.DedupAppend)
		require.NoError(t, err)
	}

	recent, err := metrics.ListMetrics(ctx, driven.MetricQuery{Order: driven.OrderMostRecent, Limit: 3})
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "https://example.com/c", recent[0].URL)
	assert.Equal(t, "https://example.com/b", recent[1].URL)
	assert.Equal(t, "https://example.com/d", recent[2].URL)

	inserted, err := metrics.ListMetrics(ctx, driven.MetricQuery{Order: driven.OrderInsertion})
	require.NoError(t, err)
	require.Len(t, inserted, 4)
	assert.Equal(t, "https://example.com/a", inserted[0].URL)
	assert.Equal(t, "https://example.com/d", inserted[3].URL)
}

func TestMetricsStore_ListMetrics_Filters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	metrics := store.MetricsStore()

	for _, rec := range []*domain.MetricRecord{
		testMetric("https://example.com/a", "2026-09-01", "old", 1, 0),
		testMetric("https://example.com/a", "2026-10-15", "new", 1, 0),
		testMetric("https://example.com/b", "2026-10-15", "other", 1, 0),
	} {
		_, err := metrics.SaveMetric(ctx, rec, domain.DedupAppend)
		require.NoError(t, err)
	}

	since, _ := domain.ParseDate("2026-10-01")
	recs, err := metrics.ListMetrics(ctx, driven.MetricQuery{URL: "https://example.com/a", Since: since})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"new"}, recs[0].Queries)
}

// ==================== RecommendationStore Tests ====================

func TestRecommendationStore_SaveAndLatest(t *testing.T) {
	store := setupTestStore(t)
	store.now = tickingClock(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	recs := store.RecommendationStore()

	date, _ := domain.ParseDate("2026-10-18")
	first := &domain.Recommendation{
		URL:             "https://example.com/knee",
		Date:            date,
		MetaTitle:       "Knee Pain Relief",
		MetaDescription: "Learn about knee pain.",
		Schema:          json.RawMessage(`{"@type":"MedicalCondition"}`),
		Confidence:      domain.ConfidenceGenerated,
	}
	require.NoError(t, recs.SaveRecommendation(ctx, first))
	require.NoError(t, recs.SaveRecommendation(ctx, &domain.Recommendation{
		URL:        "https://example.com/knee",
		Date:       date,
		MetaTitle:  "Newer",
		Confidence: domain.ConfidenceGenerated,
	}))

	latest, err := recs.LatestRecommendation(ctx, "https://example.com/knee")
	require.NoError(t, err)
	assert.Equal(t, "Newer", latest.MetaTitle)
	assert.Empty(t, latest.MetaDescription)
	assert.Equal(t, json.RawMessage(`null`), latest.Schema)

	all, err := recs.ListRecommendations(ctx, driven.RecommendationQuery{URL: "https://example.com/knee"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[1].ID)
	assert.JSONEq(t, `{"@type":"MedicalCondition"}`, string(all[1].Schema))
	assert.InDelta(t, 0.95, all[1].Confidence, 0.000001)
	assert.Equal(t, "2026-10-18", domain.FormatDate(all[1].Date))
}

func TestRecommendationStore_Summary(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	recs := store.RecommendationStore()

	summary := domain.NewSummaryRecommendation(time.Now(), domain.Summarise([]domain.MetricRecord{
		{Clicks: 10, Impressions: 100},
		{Clicks: 5, Impressions: 50},
	}))
	require.NoError(t, recs.SaveRecommendation(ctx, summary))

	latest, err := recs.LatestRecommendation(ctx, domain.SummaryURL)
	require.NoError(t, err)
	assert.Equal(t, "Weekly SEO Summary", latest.MetaTitle)
	assert.Equal(t, "Clicks: 15, Impressions: 150, CTR: 10.0%", latest.MetaDescription)
	assert.Equal(t, json.RawMessage(`{}`), latest.Schema)
	assert.InDelta(t, 1.0, latest.Confidence, 0)
}

func TestRecommendationStore_LatestRecommendation_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RecommendationStore().LatestRecommendation(context.Background(), "https://example.com/none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecommendationStore_InvalidInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	recs := store.RecommendationStore()

	assert.ErrorIs(t, recs.SaveRecommendation(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, recs.SaveRecommendation(ctx, &domain.Recommendation{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, recs.SaveRecommendation(ctx, &domain.Recommendation{
		URL:    "https://example.com/a",
		Schema: json.RawMessage(`{broken`),
	}), domain.ErrInvalidInput)
}

func TestRecommendationStore_ListLimit(t *testing.T) {
	store := setupTestStore(t)
	store.now = tickingClock(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	recs := store.RecommendationStore()

	for _, url := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		require.NoError(t, recs.SaveRecommendation(ctx, &domain.Recommendation{URL: url}))
	}

	list, err := recs.ListRecommendations(ctx, driven.RecommendationQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://example.com/c", list[0].URL)
	assert.Equal(t, "https://example.com/b", list[1].URL)
}
