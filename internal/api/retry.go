// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// The web client duplicated an ad hoc retry/backoff loop across its folder
// and document loaders; this is the shared extraction. List loads retry
// transient failures with exponential backoff, 401 short-circuits into the
// auth-error callback, and the final error is returned for a single
// de-duplicated notification.

// RetryOption customizes one WithRetry call.
type RetryOption func(*retryOpts)

type retryOpts struct {
	onAuthError func()
}

// OnAuthError registers a callback fired exactly once when the load fails
// with ErrUnauthorized. No further attempt is scheduled after it fires.
func OnAuthError(fn func()) RetryOption {
	return func(o *retryOpts) { o.onAuthError = fn }
}

// WithRetry runs fn with bounded exponential backoff. The nth retry
// (n >= 1) is scheduled baseDelay*2^(n-1) after the previous attempt,
// capped at retryMaxDelay. Non-retryable errors (4xx, auth, quota,
// cancellation) return immediately.
func (c *Client) WithRetry(ctx context.Context, fn func(context.Context) error, opts ...RetryOption) error {
	var o retryOpts
	for _, opt := range opts {
		opt(&o)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, ErrUnauthorized) {
			if o.onAuthError != nil {
				o.onAuthError()
			}
			return err
		}
		if !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("retries exhausted: %w", lastErr)
}

// backoff returns the delay before the given retry attempt (attempt >= 1).
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryBase << uint(attempt-1)
	if delay > retryMaxDelay || delay <= 0 {
		delay = retryMaxDelay
	}
	return delay
}
