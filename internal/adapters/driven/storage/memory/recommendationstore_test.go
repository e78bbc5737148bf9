package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

func TestRecommendationStore_SaveAndLatest(t *testing.T) {
	store := NewRecommendationStore()
	ctx := context.Background()

	older := &domain.Recommendation{URL: "https://example.com/a", Date: day("2026-10-17"), MetaTitle: "Old"}
	newer := &domain.Recommendation{URL: "https://example.com/a", Date: day("2026-10-18"), MetaTitle: "New"}
	require.NoError(t, store.SaveRecommendation(ctx, older))
	require.NoError(t, store.SaveRecommendation(ctx, newer))

	latest, err := store.LatestRecommendation(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "New", latest.MetaTitle)
	assert.Equal(t, newer.ID, latest.ID)
}

func TestRecommendationStore_MissingSchemaStoredAsNull(t *testing.T) {
	store := NewRecommendationStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRecommendation(ctx, &domain.Recommendation{URL: "https://example.com/a"}))

	latest, err := store.LatestRecommendation(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), latest.Schema)
}

func TestRecommendationStore_LatestRecommendation_NotFound(t *testing.T) {
	store := NewRecommendationStore()

	_, err := store.LatestRecommendation(context.Background(), domain.SummaryURL)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecommendationStore_ListRecommendations(t *testing.T) {
	store := NewRecommendationStore()
	ctx := context.Background()

	for _, url := range []string{"https://example.com/a", domain.SummaryURL, "https://example.com/b"} {
		require.NoError(t, store.SaveRecommendation(ctx, &domain.Recommendation{URL: url}))
	}

	all, err := store.ListRecommendations(ctx, driven.RecommendationQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://example.com/b", all[0].URL)

	limited, err := store.ListRecommendations(ctx, driven.RecommendationQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	summaries, err := store.ListRecommendations(ctx, driven.RecommendationQuery{URL: domain.SummaryURL})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].IsSummary())
}

func TestRecommendationStore_SaveErr(t *testing.T) {
	store := NewRecommendationStore()
	store.SaveErr = errors.New("disk full")

	err := store.SaveRecommendation(context.Background(), &domain.Recommendation{URL: "https://example.com/a"})
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, store.All())
}
