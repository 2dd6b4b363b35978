// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the typed client for the docuflow backend REST API.
//
// Every call attaches the bearer token, applies a per-endpoint timeout and
// normalizes the backend's {data}|{error} envelope into a value or an
// error from the package taxonomy. Errors never escape this boundary as
// panics; call sites decide whether to retry, toast, or tear the session
// down.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// APIPrefix is the versioned path prefix for all endpoints.
	APIPrefix = "/api/v1"

	// DefaultTimeout is the request timeout when none is configured.
	DefaultTimeout = 30 * time.Second

	// DefaultUploadTimeout covers multipart uploads and binary downloads.
	DefaultUploadTimeout = 60 * time.Second

	// DefaultMaxRetries bounds automatic retries on list loads.
	DefaultMaxRetries = 3

	// DefaultRetryBase is the backoff base delay, doubled per attempt.
	DefaultRetryBase = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize bounds response bodies read into memory.
	MaxResponseSize = 10 * 1024 * 1024
)

// Shared transports with connection pooling. The streaming client carries
// no client-level timeout; streaming lifetime is controlled by context.
var (
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}

	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource func() string

// Client is the docuflow API client. The zero value is not usable; create
// one with New.
type Client struct {
	baseURL       string
	token         TokenSource
	timeout       time.Duration
	uploadTimeout time.Duration
	maxRetries    int
	retryBase     time.Duration
	limiter       *rate.Limiter
	logf          func(format string, args ...any)

	// onUnauthorized is invoked whenever a request maps to a 401 so the
	// session holder can tear itself down. Teardown is idempotent.
	onUnauthorized func()

	httpClient   *http.Client
	streamClient *http.Client

	// sleep is swapped out in tests to observe backoff scheduling.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		token:         func() string { return "" },
		timeout:       DefaultTimeout,
		uploadTimeout: DefaultUploadTimeout,
		maxRetries:    DefaultMaxRetries,
		retryBase:     DefaultRetryBase,
		logf:          log.Printf,
		httpClient:    sharedHTTPClient,
		streamClient:  sharedStreamingClient,
		sleep:         sleepCtx,
	}
}

// WithTokenSource sets the bearer token source.
func (c *Client) WithTokenSource(src TokenSource) *Client {
	c.token = src
	return c
}

// WithTimeout sets the standard request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// WithUploadTimeout sets the upload/download timeout.
func (c *Client) WithUploadTimeout(d time.Duration) *Client {
	c.uploadTimeout = d
	return c
}

// WithRetryPolicy sets the bounds for automatic list-load retries.
func (c *Client) WithRetryPolicy(maxRetries int, base time.Duration) *Client {
	c.maxRetries = maxRetries
	c.retryBase = base
	return c
}

// WithRateLimit caps outgoing request rate (0 disables the limiter).
func (c *Client) WithRateLimit(perSec float64) *Client {
	if perSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), int(perSec)+1)
	} else {
		c.limiter = nil
	}
	return c
}

// WithLogger sets the request logger. Requests are logged as method, path,
// status and duration; headers and bodies never are.
func (c *Client) WithLogger(logf func(format string, args ...any)) *Client {
	c.logf = logf
	return c
}

// OnUnauthorized registers the session-invalidation callback fired when
// any response comes back 401.
func (c *Client) OnUnauthorized(fn func()) *Client {
	c.onUnauthorized = fn
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured reports whether a bearer token is currently available.
func (c *Client) IsConfigured() bool {
	return c.token() != ""
}

// TokenFingerprint returns a short SHA-256 fingerprint of the current
// token for logging. The token itself is never logged.
func (c *Client) TokenFingerprint() string {
	tok := c.token()
	if tok == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// endpoint joins the base URL, the /api/v1 prefix and a path.
func (c *Client) endpoint(path string) string {
	return c.baseURL + APIPrefix + path
}

// doJSON performs a JSON request and decodes the envelope's data field
// into out (which may be nil for calls with no payload).
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", c.timeout, out)
}

// doForm performs a form-encoded request (the login endpoint only).
func (c *Client) doForm(ctx context.Context, method, path string, form url.Values, out any) error {
	body := strings.NewReader(form.Encode())
	return c.do(ctx, method, path, body, "application/x-www-form-urlencoded", c.timeout, out)
}

// do performs one HTTP round trip: rate-limit, attach auth, send, read a
// size-limited body and normalize the result. Non-2xx never throws past
// this boundary; it is converted into the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, timeout time.Duration, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logf("API %s %s failed after %v", method, path, time.Since(start))
		return wrapTransportError(err)
	}
	defer resp.Body.Close()
	c.logf("API %s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	return decodeData(respBody, out)
}

// mapError decodes an error body and fires the session-invalidation
// callback for 401 responses.
func (c *Client) mapError(status int, body []byte) error {
	err := decodeError(status, body)
	if status == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return err
}

// setHeaders attaches auth and content headers.
func (c *Client) setHeaders(req *http.Request, contentType string) {
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "docuflow-cli/"+Version)
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// decodeData unwraps the {data} envelope into out. Responses without an
// envelope (bare JSON payloads) are decoded directly as a fallback.
func decodeData(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Version is the client version reported in the User-Agent header.
// Overridden at build time.
var Version = "0.4.0"
