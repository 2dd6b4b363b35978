// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Sentinel errors for the conditions call sites branch on. Everything else
// surfaces as *APIError (HTTP-level) or a wrapped transport error.
var (
	// ErrNotConfigured indicates no bearer token is available.
	ErrNotConfigured = errors.New("not logged in")

	// ErrUnauthorized indicates the backend rejected the bearer token.
	// A 401 anywhere triggers client-side session teardown.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenLimit indicates the backend's daily AI token quota is
	// exhausted. Non-retryable; the user must wait for the quota reset.
	ErrTokenLimit = errors.New("daily token limit reached")

	// ErrTimeout indicates a request exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrOffline indicates a transport-level failure before any HTTP
	// status was received.
	ErrOffline = errors.New("network unreachable")
)

// tokenLimitMarker is the backend's substring for the daily quota error.
// The error body is inspected for it because the backend does not use a
// dedicated status code for this condition.
const tokenLimitMarker = "daily token limit"

// APIError is a non-2xx response decoded from the backend's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
}

// Is maps 401 responses onto ErrUnauthorized so call sites can use
// errors.Is without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrTokenLimit:
		return strings.Contains(strings.ToLower(e.Message), tokenLimitMarker)
	}
	return false
}

// =============================================================================
// ENVELOPE
// =============================================================================

// envelope is the uniform response shape: {data} on success,
// {error:{message,code?,details?}} on failure.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string         `json:"message"`
		Code    string         `json:"code,omitempty"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// decodeError converts a non-2xx response body into an error. JSON error
// envelopes become *APIError; anything else is preserved as the raw body
// text so the user still sees what the backend said.
func decodeError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		apiErr := &APIError{
			Status:  status,
			Code:    env.Error.Code,
			Message: env.Error.Message,
			Details: env.Error.Details,
		}
		if strings.Contains(strings.ToLower(apiErr.Message), tokenLimitMarker) {
			return fmt.Errorf("%w: %s", ErrTokenLimit, apiErr.Message)
		}
		if status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
		}
		return apiErr
	}

	text := strings.TrimSpace(string(body))
	if strings.Contains(strings.ToLower(text), tokenLimitMarker) {
		return fmt.Errorf("%w: %s", ErrTokenLimit, text)
	}
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return &APIError{Status: status, Message: text}
}

// wrapTransportError classifies a failed round trip into the taxonomy.
func wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrOffline, err)
}

// isRetryable reports whether an error should trigger another list-load
// attempt. 4xx responses, auth failures and quota errors never retry;
// transport failures, timeouts and 5xx responses do.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrTokenLimit) || errors.Is(err, ErrNotConfigured) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return errors.Is(err, ErrOffline) || errors.Is(err, ErrTimeout)
}

// UserMessage translates an error into the copy shown to the user,
// distinguishing domain conditions from the generic network fallback.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenLimit):
		return "Daily token limit reached. Try again tomorrow."
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrNotConfigured):
		return "Not logged in. Run 'docuflow login' first."
	case errors.Is(err, ErrTimeout):
		return "The request timed out. Check your connection and retry."
	case errors.Is(err, ErrOffline):
		return "Could not reach the server. Check your connection and retry."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
