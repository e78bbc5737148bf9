package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

// Ensure MetricsStore implements the interface.
var _ driven.MetricsStore = (*MetricsStore)(nil)

// MetricsStore is an in-memory implementation of driven.MetricsStore.
// Records are kept in insertion order.
type MetricsStore struct {
	mu      sync.RWMutex
	records []domain.MetricRecord
	nextID  int64
	now     func() time.Time

	// FailAfter makes SaveMetric fail once this many records are stored.
	// Zero disables the failure.
	FailAfter int
}

// NewMetricsStore creates a new in-memory metrics store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{
		nextID: 1,
		now:    time.Now,
	}
}

// SaveMetric writes a record under the given dedup policy.
func (s *MetricsStore) SaveMetric(
	_ context.Context, rec *domain.MetricRecord, policy domain.DedupPolicy,
) (domain.WriteOutcome, error) {
	if rec == nil {
		return domain.WriteSkipped, domain.ErrInvalidInput
	}
	if err := rec.Validate(); err != nil {
		return domain.WriteSkipped, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAfter > 0 && len(s.records) >= s.FailAfter {
		return domain.WriteSkipped, domain.ErrStoreUnavailable
	}

	if policy != domain.DedupAppend {
		key := rec.Key()
		for i := range s.records {
			if s.records[i].Key() != key {
				continue
			}
			if policy == domain.DedupSkip {
				return domain.WriteSkipped, nil
			}
			s.records[i].Impressions = rec.Impressions
			s.records[i].Clicks = rec.Clicks
			rec.ID = s.records[i].ID
			rec.CreatedAt = s.records[i].CreatedAt
			return domain.WriteReplaced, nil
		}
	}

	stored := *rec
	stored.ID = s.nextID
	stored.Date = domain.DateOf(rec.Date)
	stored.Queries = append([]string(nil), rec.Queries...)
	stored.CreatedAt = s.now()
	s.nextID++
	s.records = append(s.records, stored)

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return domain.WriteInserted, nil
}

// ListMetrics returns records matching the query.
func (s *MetricsStore) ListMetrics(_ context.Context, q driven.MetricQuery) ([]domain.MetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MetricRecord
	for _, r := range s.records {
		if q.URL != "" && r.URL != q.URL {
			continue
		}
		if !q.Since.IsZero() && r.Date.Before(domain.DateOf(q.Since)) {
			continue
		}
		r.Queries = append([]string(nil), r.Queries...)
		out = append(out, r)
	}

	if q.Order == driven.OrderMostRecent {
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].ID > out[j].ID
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// CountMetrics returns the total number of stored records.
func (s *MetricsStore) CountMetrics(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
