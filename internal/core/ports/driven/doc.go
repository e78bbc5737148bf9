// Package driven declares what the services need from the outside world.
//
// MetricsStore, RecommendationStore and ConfigStore must always be
// provided. SearchAnalytics, LLMService and PromptStore are needed only by
// the stage that calls them; a stage whose collaborator is nil reports it
// as unavailable. StageRecorder and SchedulerStore may be nil.
//
// Implementations live under internal/adapters and internal/connectors.
// This package imports domain and nothing else from the module.
package driven
