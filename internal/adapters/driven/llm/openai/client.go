package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/searchlift/internal/core/domain"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// errorEnvelope is the error shape OpenAI-compatible servers return.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// call sends in (if any) as JSON to path and decodes the reply into out.
// Non-2xx statuses and error envelopes map onto domain errors.
func (s *Service) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("openai: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: openai: %w", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: openai: read response: %w", domain.ErrLLMUnavailable, err)
	}

	var envelope errorEnvelope
	_ = json.Unmarshal(raw, &envelope)
	switch {
	case envelope.Error != nil:
		return statusError(resp.StatusCode, envelope.Error.Message)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return statusError(resp.StatusCode, string(raw))
	case out == nil:
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: openai: decode response: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// statusError classifies a failed call by HTTP status.
func statusError(status int, msg string) error {
	kind := domain.ErrLLMUnavailable
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ErrAuthInvalid
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	}
	return fmt.Errorf("%w: openai: HTTP %d: %s", kind, status, strings.TrimSpace(msg))
}
