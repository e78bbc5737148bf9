package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable indicates the metrics store is not configured or unreachable.
	ErrStoreUnavailable = errors.New("metrics store unavailable")

	// ErrAnalyticsUnavailable indicates the search analytics provider is not configured.
	ErrAnalyticsUnavailable = errors.New("search analytics unavailable")

	// ErrLLMUnavailable indicates the text generation service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrMalformedResponse indicates a provider returned data that does not
	// match the expected shape (e.g. an analytics row without page/query keys).
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrAuthInvalid indicates the provider rejected the configured credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
