package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// mockPipeline implements driving.Pipeline for testing.
type mockPipeline struct {
	report   *domain.StageReport
	reports  []*domain.StageReport
	err      error
	ranStage domain.Stage
}

func (m *mockPipeline) RunStage(_ context.Context, stage domain.Stage) (*domain.StageReport, error) {
	m.ranStage = stage
	return m.report, m.err
}

func (m *mockPipeline) RunAll(_ context.Context) ([]*domain.StageReport, error) {
	return m.reports, m.err
}

// mockInsightsService implements driving.InsightsService for testing.
type mockInsightsService struct {
	insight   *domain.PageInsight
	rec       *domain.Recommendation
	summary   *domain.Recommendation
	recs      []domain.Recommendation
	err       error
	lastURL   string
	lastDays  int
	lastLimit int
}

func (m *mockInsightsService) PageMetrics(_ context.Context, url string, days int) (*domain.PageInsight, error) {
	m.lastURL, m.lastDays = url, days
	return m.insight, m.err
}

func (m *mockInsightsService) LatestRecommendation(_ context.Context, url string) (*domain.Recommendation, error) {
	m.lastURL = url
	return m.rec, m.err
}

func (m *mockInsightsService) LatestSummary(_ context.Context) (*domain.Recommendation, error) {
	return m.summary, m.err
}

func (m *mockInsightsService) Recommendations(_ context.Context, url string, limit int) ([]domain.Recommendation, error) {
	m.lastURL, m.lastLimit = url, limit
	return m.recs, m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings *domain.Settings
	getErr   error
	setErr   error
	set      map[string]string
	secrets  map[string]bool
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultSettings()
	return &mockSettingsService{
		settings: &s,
		set:      make(map[string]string),
		secrets:  map[string]bool{"llm.api_key": true},
	}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.settings, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.api_key", "site_url"}
}

func (m *mockSettingsService) IsSecret(key string) bool {
	return m.secrets[key]
}

func (m *mockSettingsService) Path() string {
	return "/tmp/searchlift/config.toml"
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	tasks     []domain.ScheduledTask
	history   []domain.TaskResult
	err       error
	started   bool
	stopped   bool
	lastStage domain.Stage
	lastLimit int
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

func (m *mockScheduler) Tasks(_ context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, m.err
}

func (m *mockScheduler) History(_ context.Context, stage domain.Stage, limit int) ([]domain.TaskResult, error) {
	m.lastStage, m.lastLimit = stage, limit
	return m.history, m.err
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	saved := Services{
		Pipeline:       pipeline,
		Insights:       insightsService,
		Settings:       settingsService,
		Scheduler:      scheduler,
		MetricsHandler: metricsHandler,
		Watcher:        configWatcher,
		SetupErr:       setupErr,
	}
	Configure(s)
	t.Cleanup(func() { Configure(saved) })
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
