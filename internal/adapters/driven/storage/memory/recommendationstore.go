package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

// Ensure RecommendationStore implements the interface.
var _ driven.RecommendationStore = (*RecommendationStore)(nil)

// RecommendationStore is an in-memory implementation of driven.RecommendationStore.
type RecommendationStore struct {
	mu      sync.RWMutex
	records []domain.Recommendation
	nextID  int64
	now     func() time.Time

	// SaveErr, when set, is returned by every SaveRecommendation call.
	SaveErr error
}

// NewRecommendationStore creates a new in-memory recommendation store.
func NewRecommendationStore() *RecommendationStore {
	return &RecommendationStore{
		nextID: 1,
		now:    time.Now,
	}
}

// SaveRecommendation appends a record.
func (s *RecommendationStore) SaveRecommendation(_ context.Context, rec *domain.Recommendation) error {
	if rec == nil || rec.URL == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}

	stored := *rec
	stored.ID = s.nextID
	stored.Date = domain.DateOf(rec.Date)
	stored.Schema = append([]byte(nil), rec.SchemaOrNull()...)
	stored.CreatedAt = s.now()
	s.nextID++
	s.records = append(s.records, stored)

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return nil
}

// LatestRecommendation returns the newest record for url.
func (s *RecommendationStore) LatestRecommendation(
	ctx context.Context, url string,
) (*domain.Recommendation, error) {
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
func (s *RecommendationStore) ListRecommendations(
	_ context.Context, q driven.RecommendationQuery,
) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Recommendation
	// Insertion order already follows created_at, so walk backwards.
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if q.URL != "" && r.URL != q.URL {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// All returns every stored record in insertion order.
func (s *RecommendationStore) All() []domain.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Recommendation(nil), s.records...)
}
