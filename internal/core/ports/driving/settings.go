package driving

import "github.com/custodia-labs/searchlift/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and the environment.
	Get() (*domain.Settings, error)

	// Set validates and persists a single configuration key.
	Set(key, value string) error

	// Keys returns the configuration keys Set accepts.
	Keys() []string

	// IsSecret reports whether a key holds a credential.
	IsSecret(key string) bool

	// Path returns the configuration file path.
	Path() string
}
