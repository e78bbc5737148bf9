package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MetaSuggestion is the structured part of a generator reply.
type MetaSuggestion struct {
	Title       string
	Description string

	// Schema is the raw "schema" value, or NullSchema when the key was absent.
	Schema json.RawMessage
}

// ParseFailure describes a generator reply that could not be decoded.
// It is a recoverable, per-item result.
type ParseFailure struct {
	// URL identifies the page the reply was for.
	URL string

	// RawText is the reply as received.
	RawText string

	// Reason explains why decoding failed.
	Reason string
}

// Error implements error.
func (f ParseFailure) Error() string {
	return fmt.Sprintf("unparseable suggestion for %s: %s", f.URL, f.Reason)
}

// SuggestionOutcome is either a decoded suggestion or a parse failure.
// Exactly one of Suggestion and Failure is set.
type SuggestionOutcome struct {
	Suggestion *MetaSuggestion
	Failure    *ParseFailure
}

// OK returns true when the reply decoded successfully.
func (o SuggestionOutcome) OK() bool {
	return o.Suggestion != nil
}

var errNotObject = errors.New("reply is not a JSON object")

// DecodeSuggestion validates a generator reply for the page at url.
// The reply must be a JSON object (optionally inside a markdown code fence).
// "title" and "description" must be strings when present; "schema" may be
// any JSON value and is recorded as NullSchema when missing.
func DecodeSuggestion(url, raw string) SuggestionOutcome {
	fail := func(err error) SuggestionOutcome {
		return SuggestionOutcome{Failure: &ParseFailure{URL: url, RawText: raw, Reason: err.Error()}}
	}

	body := unfence(raw)
	if body == "" {
		return fail(errors.New("empty reply"))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return fail(err)
	}
	if fields == nil {
		return fail(errNotObject)
	}

	title, err := optionalString(fields, "title")
	if err != nil {
		return fail(err)
	}
	description, err := optionalString(fields, "description")
	if err != nil {
		return fail(err)
	}

	schema := NullSchema
	if v, ok := fields["schema"]; ok && len(bytes.TrimSpace(v)) > 0 {
		schema = v
	}

	return SuggestionOutcome{Suggestion: &MetaSuggestion{
		Title:       title,
		Description: description,
		Schema:      schema,
	}}
}

func optionalString(fields map[string]json.RawMessage, key string) (string, error) {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("%q is not a string", key)
	}
	return s, nil
}

// unfence strips a surrounding ``` or ```json fence.
func unfence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
