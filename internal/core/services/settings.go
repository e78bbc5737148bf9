package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/searchlift/internal/core/domain"
	"github.com/custodia-labs/searchlift/internal/core/ports/driven"
	"github.com/custodia-labs/searchlift/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeySiteURL             = "site_url"
	KeyDedupPolicy         = "dedup_policy"
	KeyWindowDays          = "ingest.window_days"
	KeyRowLimit            = "ingest.row_limit"
	KeyAggregateLimit      = "aggregate.limit"
	KeyRecommendLimit      = "recommend.limit"
	KeyStoreDriver         = "store.driver"
	KeyStoreDataDir        = "store.data_dir"
	KeyStoreDatabaseURL    = "store.database_url"
	KeyStoreMaxConns       = "store.max_conns"
	KeySCCredentialsFile   = "search_console.credentials_file"
	KeySCCredentialsJSON   = "search_console.credentials_json"
	KeySCRequestsPerSecond = "search_console.requests_per_second"
	KeySCMaxRetries        = "search_console.max_retries"
	KeyLLMAPIKey           = "llm.api_key"
	KeyLLMBaseURL          = "llm.base_url"
	KeyLLMModel            = "llm.model"
	KeyLLMTimeout          = "llm.timeout"
	KeyLLMJSONMode         = "llm.json_mode"
	KeyLLMRequestsPerSec   = "llm.requests_per_second"
	KeyLLMMaxTokens        = "llm.max_tokens"
	KeyLLMTemperature      = "llm.temperature"
	KeySchedulerEnabled    = "scheduler.enabled"
)

// Environment overrides.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvSiteURL         = "SEARCHLIFT_SITE_URL"
	EnvDedupPolicy     = "SEARCHLIFT_DEDUP_POLICY"
	EnvDatabaseURL     = "SEARCHLIFT_DATABASE_URL"
	EnvSupabaseURL     = "SUPABASE_POSTGRES_URL"
	EnvCredentialsFile = "SEARCH_CONSOLE_CREDENTIALS"
	EnvCredentialsJSON = "SEARCH_CONSOLE_CREDENTIALS_JSON"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIBaseURL   = "OPENAI_BASE_URL"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindCount
	kindFloat
	kindBool
	kindDuration
)

type settingKey struct {
	kind     valueKind
	secret   bool
	validate func(string) error
}

// settingKeys lists every key Set accepts.
var settingKeys = map[string]settingKey{
	KeySiteURL:             {kind: kindString, validate: nonEmpty},
	KeyDedupPolicy:         {kind: kindString, validate: validDedupPolicy},
	KeyWindowDays:          {kind: kindInt},
	KeyRowLimit:            {kind: kindInt},
	KeyAggregateLimit:      {kind: kindInt},
	KeyRecommendLimit:      {kind: kindInt},
	KeyStoreDriver:         {kind: kindString, validate: validStoreDriver},
	KeyStoreDataDir:        {kind: kindString},
	KeyStoreDatabaseURL:    {kind: kindString, secret: true},
	KeyStoreMaxConns:       {kind: kindInt},
	KeySCCredentialsFile:   {kind: kindString},
	KeySCCredentialsJSON:   {kind: kindString, secret: true},
	KeySCRequestsPerSecond: {kind: kindFloat},
	KeySCMaxRetries:        {kind: kindCount},
	KeyLLMAPIKey:           {kind: kindString, secret: true},
	KeyLLMBaseURL:          {kind: kindString},
	KeyLLMModel:            {kind: kindString, validate: nonEmpty},
	KeyLLMTimeout:          {kind: kindDuration},
	KeyLLMJSONMode:         {kind: kindBool},
	KeyLLMRequestsPerSec:   {kind: kindFloat},
	KeyLLMMaxTokens:        {kind: kindInt},
	KeyLLMTemperature:      {kind: kindFloat},
	KeySchedulerEnabled:    {kind: kindBool},
}

func init() {
	for _, stage := range domain.Stages {
		settingKeys[schedulerKey(stage, "enabled")] = settingKey{kind: kindBool}
		settingKeys[schedulerKey(stage, "interval")] = settingKey{kind: kindDuration}
	}
}

func schedulerKey(stage domain.Stage, field string) string {
	return "scheduler." + string(stage) + "." + field
}

// SettingsService resolves settings from defaults, the config store and
// environment overrides, in that order of precedence (lowest first).
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get resolves and validates the current settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.SiteURL = s.getString(KeySiteURL, EnvSiteURL, settings.SiteURL)
	settings.DedupPolicy = domain.DedupPolicy(s.getString(KeyDedupPolicy, EnvDedupPolicy, string(settings.DedupPolicy)))
	settings.WindowDays = s.getInt(KeyWindowDays, settings.WindowDays)
	settings.RowLimit = s.getInt(KeyRowLimit, settings.RowLimit)
	settings.AggregateLimit = s.getInt(KeyAggregateLimit, settings.AggregateLimit)
	settings.RecommendLimit = s.getInt(KeyRecommendLimit, settings.RecommendLimit)

	settings.Store.DataDir = s.configStore.GetString(KeyStoreDataDir)
	settings.Store.DatabaseURL = s.getString(KeyStoreDatabaseURL, EnvDatabaseURL, "")
	if settings.Store.DatabaseURL == "" {
		settings.Store.DatabaseURL = s.getenv(EnvSupabaseURL)
	}
	settings.Store.Driver = domain.StoreDriver(s.configStore.GetString(KeyStoreDriver))
	if settings.Store.Driver == "" {
		// A database URL without an explicit driver selects Postgres.
		settings.Store.Driver = domain.StoreDriverSQLite
		if settings.Store.DatabaseURL != "" {
			settings.Store.Driver = domain.StoreDriverPostgres
		}
	}
	settings.Store.MaxConns = s.getInt(KeyStoreMaxConns, settings.Store.MaxConns)

	settings.SearchConsole.CredentialsFile = s.getString(KeySCCredentialsFile, EnvCredentialsFile, "")
	settings.SearchConsole.CredentialsJSON = s.getString(KeySCCredentialsJSON, EnvCredentialsJSON, "")
	if rps := s.configStore.GetFloat(KeySCRequestsPerSecond); rps > 0 {
		settings.SearchConsole.RequestsPerSecond = rps
	}
	settings.SearchConsole.MaxRetries = s.getInt(KeySCMaxRetries, settings.SearchConsole.MaxRetries)

	settings.LLM.APIKey = s.getString(KeyLLMAPIKey, EnvOpenAIKey, "")
	settings.LLM.BaseURL = s.getString(KeyLLMBaseURL, EnvOpenAIBaseURL, "")
	settings.LLM.Model = s.getString(KeyLLMModel, "", settings.LLM.Model)
	settings.LLM.JSONMode = s.getBool(KeyLLMJSONMode, settings.LLM.JSONMode)
	settings.LLM.MaxTokens = s.getInt(KeyLLMMaxTokens, settings.LLM.MaxTokens)
	if rps := s.configStore.GetFloat(KeyLLMRequestsPerSec); rps > 0 {
		settings.LLM.RequestsPerSecond = rps
	}
	if temp := s.configStore.GetFloat(KeyLLMTemperature); temp > 0 {
		settings.LLM.Temperature = temp
	}

	var err error
	if settings.LLM.Timeout, err = s.getDuration(KeyLLMTimeout, settings.LLM.Timeout); err != nil {
		return nil, err
	}

	settings.Scheduler.Enabled = s.getBool(KeySchedulerEnabled, settings.Scheduler.Enabled)
	for _, stage := range domain.Stages {
		task := settings.Scheduler.GetTaskConfig(string(stage))
		task.Enabled = s.getBool(schedulerKey(stage, "enabled"), task.Enabled)
		if task.Interval, err = s.getDuration(schedulerKey(stage, "interval"), task.Interval); err != nil {
			return nil, err
		}
		settings.Scheduler.TaskConfigs[string(stage)] = task
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set parses value for the key's type, validates it and persists it.
func (s *SettingsService) Set(key, value string) error {
	def, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)
	if def.validate != nil {
		if err := def.validate(value); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
	}

	var typed any
	switch def.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
		}
		typed = int64(n)
	case kindCount:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be zero or a positive integer", domain.ErrInvalidInput, key)
		}
		typed = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%w: %s must be a positive number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration such as 24h", domain.ErrInvalidInput, key)
		}
		typed = d.String()
	default:
		typed = value
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns the configuration keys Set accepts, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether a key holds a credential.
func (s *SettingsService) IsSecret(key string) bool {
	return settingKeys[key].secret
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// getString returns the env override, then the stored value, then fallback.
func (s *SettingsService) getString(key, env, fallback string) string {
	if env != "" {
		if v := strings.TrimSpace(s.getenv(env)); v != "" {
			return v
		}
	}
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return fallback
}

func (s *SettingsService) getBool(key string, fallback bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s: invalid duration %q", domain.ErrInvalidInput, key, raw)
	}
	return d, nil
}

func nonEmpty(v string) error {
	if v == "" {
		return errors.New("value must not be empty")
	}
	return nil
}

func validDedupPolicy(v string) error {
	if !domain.DedupPolicy(v).IsValid() {
		return errors.New("must be one of append, skip, overwrite")
	}
	return nil
}

func validStoreDriver(v string) error {
	if !domain.StoreDriver(v).IsValid() {
		return errors.New("must be sqlite or postgres")
	}
	return nil
}
