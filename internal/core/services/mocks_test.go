package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
)

// --- Shared mock implementations for stage testing ---

// fixedClock returns a clock frozen at the given RFC 3339 instant.
func fixedClock(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

// mockAnalytics implements driven.SearchAnalytics for testing.
type mockAnalytics struct {
	rows    []driven.AnalyticsRow
	err     error
	calls   int
	siteURL string
	query   driven.AnalyticsQuery
}

func (m *mockAnalytics) Query(_ context.Context, siteURL string, q driven.AnalyticsQuery) ([]driven.AnalyticsRow, error) {
	m.calls++
	m.siteURL = siteURL
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// mockLLM implements driven.LLMService for testing.
// Replies are returned in order; errAt fails the call with that index.
type mockLLM struct {
	mu       sync.Mutex
	replies  []string
	errAt    int
	err      error
	requests [][]driven.ChatMessage
	options  []driven.ChatOptions
}

func newMockLLM(replies ...string) *mockLLM {
	return &mockLLM{replies: replies, errAt: -1}
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.requests)
	m.requests = append(m.requests, messages)
	m.options = append(m.options, opts)
	if idx == m.errAt {
		return "", m.err
	}
	if idx < len(m.replies) {
		return m.replies[idx], nil
	}
	return `{"title":"T","description":"D","schema":{}}`, nil
}

func (m *mockLLM) ModelName() string            { return "mock-model" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockRecorder implements driven.StageRecorder for testing.
type mockRecorder struct {
	mu      sync.Mutex
	reports []*domain.StageReport
	errs    []error
}

func (m *mockRecorder) RecordStage(report *domain.StageReport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	m.errs = append(m.errs, err)
}

// stubRunner implements driving.StageRunner for pipeline and scheduler tests.
type stubRunner struct {
	mu     sync.Mutex
	stage  domain.Stage
	report *domain.StageReport
	err    error
	calls  int
	delay  time.Duration
}

func (r *stubRunner) Stage() domain.Stage { return r.stage }

func (r *stubRunner) Run(ctx context.Context) (*domain.StageReport, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
		}
	}
	report := r.report
	if report == nil {
		report = &domain.StageReport{RunID: "run-" + string(r.stage), Stage: r.stage}
	}
	return report, r.err
}

func (r *stubRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
