package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/searchlift/internal/adapters/driven/config/file"
	"github.com/custodia-labs/searchlift/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/searchlift/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/searchlift/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/searchlift/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/searchlift/internal/adapters/driving/cli"
	"github.com/custodia-labs/searchlift/internal/connectors/google"
	"github.com/custodia-labs/searchlift/internal/connectors/google/searchconsole"
	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/services"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// app owns the adapters built at startup and releases them on Close.
type app struct {
	services cli.Services
	closers  []func() error
}

// newApp builds the configuration layer and, when settings allow it, the
// pipeline. A pipeline that cannot be built is not fatal here: config and
// version still work, and pipeline commands report the reason.
func newApp(ctx context.Context) (*app, error) {
	configDir, err := file.DefaultDir()
	if err != nil {
		return nil, err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	a := &app{}
	a.services.Settings = settingsService

	watcher := file.NewWatcher(configStore, prompts)
	watcher.OnConfigChange = func() {
		logger.Warn("config.toml changed; restart to apply store, credential or interval changes")
	}
	a.services.Watcher = watcher

	settings, err := settingsService.Get()
	if err != nil {
		a.services.SetupErr = err
		return a, nil
	}
	if err := a.wirePipeline(ctx, settings, prompts); err != nil {
		a.Close()
		a.closers = nil
		a.services = cli.Services{Settings: settingsService, Watcher: watcher, SetupErr: err}
	}
	return a, nil
}

// wirePipeline opens the stores and provider clients and builds the stages.
func (a *app) wirePipeline(ctx context.Context, settings *domain.Settings, prompts driven.PromptStore) error {
	// Scheduler state is always local; metrics may live in Postgres.
	local, err := sqlite.NewStore(settings.Store.DataDir)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	a.closers = append(a.closers, local.Close)

	var (
		metrics driven.MetricsStore        = local.MetricsStore()
		recs    driven.RecommendationStore = local.RecommendationStore()
	)
	if settings.Store.Driver == domain.StoreDriverPostgres {
		pg, err := postgres.NewStore(ctx, postgres.Config{
			DatabaseURL: settings.Store.DatabaseURL,
			MaxConns:    settings.Store.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		metrics, recs = pg.MetricsStore(), pg.RecommendationStore()
	}

	analytics, err := newAnalytics(ctx, settings.SearchConsole)
	if err != nil {
		return err
	}
	llm, err := a.newLLM(settings.LLM)
	if err != nil {
		return err
	}

	recorder := prometheus.NewRecorder()

	ingest := services.NewIngestionService(analytics, metrics, services.IngestionConfig{
		SiteURL:     settings.SiteURL,
		WindowDays:  settings.WindowDays,
		RowLimit:    settings.RowLimit,
		DedupPolicy: settings.DedupPolicy,
	})
	aggregate := services.NewAggregationService(metrics, recs, settings.AggregateLimit)
	recommend := services.NewRecommendationService(llm, prompts, metrics, recs, recommendationConfig(settings))
	for _, stage := range []interface{ SetRecorder(driven.StageRecorder) }{ingest, aggregate, recommend} {
		stage.SetRecorder(recorder)
	}

	a.services.Pipeline = services.NewPipelineService(ingest, aggregate, recommend)
	a.services.Insights = services.NewInsightsService(metrics, recs)
	a.services.Scheduler = services.NewScheduler(settings.Scheduler, local.SchedulerStore(), ingest, aggregate, recommend)
	a.services.MetricsHandler = recorder.Handler()
	return nil
}

// newAnalytics returns nil when no credentials are configured so that the
// ingest stage reports the provider as unavailable while the others still run.
func newAnalytics(ctx context.Context, cfg domain.SearchConsoleSettings) (driven.SearchAnalytics, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}
	ts, err := google.NewTokenSource(ctx, google.Credentials{
		File: cfg.CredentialsFile,
		JSON: cfg.CredentialsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("search console credentials: %w", err)
	}
	svc, err := google.NewSearchConsoleService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("search console client: %w", err)
	}
	return searchconsole.NewClient(svc, analyticsOptions(cfg)...), nil
}

func analyticsOptions(cfg domain.SearchConsoleSettings) []searchconsole.Option {
	limits := google.SearchConsoleLimits
	limits.RequestsPerSecond = cfg.RequestsPerSecond
	return []searchconsole.Option{
		searchconsole.WithRateLimiter(google.NewRateLimiter(limits)),
		searchconsole.WithMaxRetries(cfg.MaxRetries),
	}
}

// newLLM returns nil when no API key is configured; see newAnalytics.
func (a *app) newLLM(cfg domain.LLMSettings) (driven.LLMService, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}
	llm, err := openai.New(llmConfig(cfg))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, llm.Close)
	return llm, nil
}

func llmConfig(cfg domain.LLMSettings) openai.Config {
	return openai.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

func recommendationConfig(settings *domain.Settings) services.RecommendationConfig {
	return services.RecommendationConfig{
		Limit:       settings.RecommendLimit,
		JSONMode:    settings.LLM.JSONMode,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
	}
}

// Close releases every adapter in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
