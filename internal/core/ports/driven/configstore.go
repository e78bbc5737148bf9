package driven

// ConfigStore is a persistent key/value settings store. Keys are dotted
// ("llm.model"). Typed getters return the zero value when a key is missing
// or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Keys lists stored keys, sorted.
	Keys() []string

	// Set writes through to storage before returning.
	Set(key string, value any) error

	// Load replaces the in-memory view with what is in storage.
	Load() error

	Path() string
}
