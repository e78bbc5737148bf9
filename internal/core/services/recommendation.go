package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
	"github.com/custodia-labs/searchlift/internal/logger"
)

// Ensure RecommendationService implements the interface.
var _ driving.StageRunner = (*RecommendationService)(nil)

// RecommendationConfig holds the recommendation parameters.
type RecommendationConfig struct {
	// Limit is the batch size. Non-positive uses domain.DefaultRecommendLimit.
	Limit int

	// JSONMode asks the generator for a JSON object reply.
	JSONMode bool

	// MaxTokens and Temperature are passed through to the generator.
	MaxTokens   int
	Temperature float64
}

// RecommendationService asks the generator for new page metadata for a
// batch of metric records.
type RecommendationService struct {
	stageBase
	llm     driven.LLMService
	prompts driven.PromptStore
	metrics driven.MetricsStore
	recs    driven.RecommendationStore
	cfg     RecommendationConfig
}

// NewRecommendationService creates a recommendation stage.
// prompts may be nil, in which case the built-in prompts are used.
func NewRecommendationService(
	llm driven.LLMService,
	prompts driven.PromptStore,
	metrics driven.MetricsStore,
	recs driven.RecommendationStore,
	cfg RecommendationConfig,
) *RecommendationService {
	if cfg.Limit <= 0 {
		cfg.Limit = domain.DefaultRecommendLimit
	}
	return &RecommendationService{
		stageBase: newStageBase(domain.StageRecommend),
		llm:       llm,
		prompts:   prompts,
		metrics:   metrics,
		recs:      recs,
		cfg:       cfg,
	}
}

// Run prompts the generator once per record, in insertion order.
// Replies that fail to decode are logged, reported and skipped.
// A generator or store error aborts the run; earlier writes remain.
func (s *RecommendationService) Run(ctx context.Context) (*domain.StageReport, error) {
	report := s.begin()

	if s.llm == nil {
		return s.finish(report, fmt.Errorf("%w: text generation not configured", domain.ErrLLMUnavailable))
	}
	if s.metrics == nil || s.recs == nil {
		return s.finish(report, fmt.Errorf("%w: store not configured", domain.ErrStoreUnavailable))
	}

	system, userTmpl, err := s.loadPrompts()
	if err != nil {
		return s.finish(report, err)
	}

	records, err := s.metrics.ListMetrics(ctx, driven.MetricQuery{
		Order: driven.OrderInsertion,
		Limit: s.cfg.Limit,
	})
	if err != nil {
		return s.finish(report, fmt.Errorf("list metrics: %w", err))
	}
	report.Fetched = len(records)
	if len(records) == 0 {
		logger.Info("No metrics to generate recommendations for")
		report.NoOp = true
		return s.finish(report, nil)
	}

	today := domain.LocalDate(s.now())
	opts := driven.ChatOptions{
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
		JSONResponse: s.cfg.JSONMode,
	}

	for i := range records {
		rec := &records[i]

		prompt, err := renderMetaPrompt(userTmpl, rec)
		if err != nil {
			return s.finish(report, fmt.Errorf("render prompt for %s: %w", rec.URL, err))
		}

		logger.Debug("Requesting metadata for %s (%d impressions, %d clicks)", rec.URL, rec.Impressions, rec.Clicks)
		reply, err := s.llm.Chat(ctx, []driven.ChatMessage{
			{Role: driven.RoleSystem, Content: system},
			{Role: driven.RoleUser, Content: prompt},
		}, opts)
		if err != nil {
			return s.finish(report, fmt.Errorf("generate metadata for %s: %w", rec.URL, err))
		}

		outcome := domain.DecodeSuggestion(rec.URL, reply)
		if !outcome.OK() {
			logger.Warn("Failed to parse generator output for %s: %s", rec.URL, outcome.Failure.Reason)
			report.Failures = append(report.Failures, *outcome.Failure)
			continue
		}

		suggestion := outcome.Suggestion
		if err := s.recs.SaveRecommendation(ctx, &domain.Recommendation{
			URL:             rec.URL,
			Date:            today,
			MetaTitle:       suggestion.Title,
			MetaDescription: suggestion.Description,
			Schema:          suggestion.Schema,
			Confidence:      domain.ConfidenceGenerated,
		}); err != nil {
			return s.finish(report, fmt.Errorf("save recommendation for %s: %w", rec.URL, err))
		}
		report.Written++
		logger.Info("Optimised metadata for %s", rec.URL)
	}

	return s.finish(report, nil)
}

// loadPrompts returns the system prompt and the parsed user template.
func (s *RecommendationService) loadPrompts() (string, *template.Template, error) {
	system := domain.DefaultMetaSystemPrompt
	user := domain.DefaultMetaUserPrompt

	if s.prompts != nil {
		var err error
		if system, err = s.prompts.Load(driven.PromptMetaSystem); err != nil {
			return "", nil, fmt.Errorf("load system prompt: %w", err)
		}
		if user, err = s.prompts.Load(driven.PromptMetaUser); err != nil {
			return "", nil, fmt.Errorf("load user prompt: %w", err)
		}
	}

	tmpl, err := template.New(driven.PromptMetaUser).Option("missingkey=error").Parse(user)
	if err != nil {
		return "", nil, fmt.Errorf("%w: parse user prompt: %w", domain.ErrInvalidInput, err)
	}
	return system, tmpl, nil
}

// renderMetaPrompt fills the user template with a record's values verbatim.
func renderMetaPrompt(tmpl *template.Template, rec *domain.MetricRecord) (string, error) {
	queries := rec.Queries
	if queries == nil {
		queries = []string{}
	}
	encoded, err := json.Marshal(queries)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	err = tmpl.Execute(&b, domain.MetaPromptData{
		URL:         rec.URL,
		Queries:     string(encoded),
		Impressions: rec.Impressions,
		Clicks:      rec.Clicks,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
