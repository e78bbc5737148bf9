package domain

import (
	"fmt"
	"time"
)

// DefaultSiteURL is the Search Console property queried when none is configured.
const DefaultSiteURL = "sc-domain:alighahary.com"

// Stage defaults.
const (
	DefaultWindowDays     = 7
	DefaultRowLimit       = 250
	DefaultAggregateLimit = 50
	DefaultRecommendLimit = 10
)

// StoreDriver selects the metrics store backend.
type StoreDriver string

// Available store drivers.
const (
	// StoreDriverSQLite is a local SQLite file.
	StoreDriverSQLite StoreDriver = "sqlite"

	// StoreDriverPostgres is a remote Postgres database (e.g. Supabase).
	StoreDriverPostgres StoreDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StoreDriver) IsValid() bool {
	return d == StoreDriverSQLite || d == StoreDriverPostgres
}

// String returns the string representation.
func (d StoreDriver) String() string {
	return string(d)
}

// StoreSettings configures the metrics store.
type StoreSettings struct {
	// Driver selects the backend.
	Driver StoreDriver

	// DataDir holds the SQLite database and scheduler state.
	// Empty means ~/.searchlift/data.
	DataDir string

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// MaxConns caps the Postgres pool size.
	MaxConns int
}

// SearchConsoleSettings configures the search analytics provider.
type SearchConsoleSettings struct {
	// CredentialsFile is a path to a service-account JSON key.
	CredentialsFile string

	// CredentialsJSON is an inline service-account JSON key.
	// Takes precedence over CredentialsFile.
	CredentialsJSON string

	// RequestsPerSecond paces provider calls.
	RequestsPerSecond float64

	// MaxRetries is how often a rate-limited query is retried.
	// Zero fails the query on the first rate-limit response.
	MaxRetries int
}

// IsConfigured returns true if credentials are available.
func (s *SearchConsoleSettings) IsConfigured() bool {
	return s.CredentialsFile != "" || s.CredentialsJSON != ""
}

// LLMSettings configures the text generation provider.
type LLMSettings struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds a single completion request.
	Timeout time.Duration

	// JSONMode asks the provider for a JSON object response.
	JSONMode bool

	// RequestsPerSecond paces completion requests. Zero means unpaced.
	RequestsPerSecond float64

	// MaxTokens and Temperature are sent with every completion when set.
	MaxTokens   int
	Temperature float64
}

// IsConfigured returns true if an API key is available.
func (s *LLMSettings) IsConfigured() bool {
	return s.APIKey != ""
}

// Settings is the full pipeline configuration.
type Settings struct {
	// SiteURL is the Search Console property (e.g. sc-domain:example.com).
	SiteURL string

	// DedupPolicy governs ingestion writes for existing keys.
	DedupPolicy DedupPolicy

	// WindowDays is the trailing ingestion window.
	WindowDays int

	// RowLimit caps analytics rows per ingestion.
	RowLimit int

	// AggregateLimit is how many recent records the summary covers.
	AggregateLimit int

	// RecommendLimit is how many records each recommendation batch reads.
	RecommendLimit int

	Store         StoreSettings
	SearchConsole SearchConsoleSettings
	LLM           LLMSettings
	Scheduler     SchedulerConfig
}

// DefaultSettings returns the defaults every run starts from.
func DefaultSettings() Settings {
	return Settings{
		SiteURL:        DefaultSiteURL,
		DedupPolicy:    DedupAppend,
		WindowDays:     DefaultWindowDays,
		RowLimit:       DefaultRowLimit,
		AggregateLimit: DefaultAggregateLimit,
		RecommendLimit: DefaultRecommendLimit,
		Store: StoreSettings{
			Driver:   StoreDriverSQLite,
			MaxConns: 2,
		},
		SearchConsole: SearchConsoleSettings{
			RequestsPerSecond: 1,
		},
		LLM: LLMSettings{
			Model:   "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// Validate checks settings for values no stage can run with.
func (s *Settings) Validate() error {
	if s.SiteURL == "" {
		return fmt.Errorf("%w: site url is required", ErrInvalidInput)
	}
	if !s.DedupPolicy.IsValid() {
		return fmt.Errorf("%w: unknown dedup policy %q", ErrInvalidInput, s.DedupPolicy)
	}
	if !s.Store.Driver.IsValid() {
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidInput, s.Store.Driver)
	}
	if s.Store.Driver == StoreDriverPostgres && s.Store.DatabaseURL == "" {
		return fmt.Errorf("%w: postgres store requires a database url", ErrInvalidInput)
	}
	if s.WindowDays <= 0 || s.RowLimit <= 0 || s.AggregateLimit <= 0 || s.RecommendLimit <= 0 {
		return fmt.Errorf("%w: window and limits must be positive", ErrInvalidInput)
	}
	return nil
}
