// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL).
		WithTokenSource(func() string { return "test-token" }).
		WithLogger(func(string, ...any) {})
	return c, srv
}

// =============================================================================
// ENVELOPE NORMALIZATION
// =============================================================================

// Every non-2xx status must come back as an error value, never a panic,
// and JSON error envelopes must decode into *APIError.
func TestNon2xxNeverEscapesAsPanic(t *testing.T) {
	statuses := []int{400, 401, 403, 404, 409, 422, 429, 500, 502, 503}

	for _, status := range statuses {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				fmt.Fprintf(w, `{"error":{"message":"failure %d","code":"E%d"}}`, status, status)
			}))

			_, err := c.ListChats(context.Background())
			require.Error(t, err)

			if status == http.StatusUnauthorized {
				assert.True(t, errors.Is(err, ErrUnauthorized))
				return
			}
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "want *APIError, got %T: %v", err, err)
			assert.Equal(t, status, apiErr.Status)
			assert.Equal(t, fmt.Sprintf("failure %d", status), apiErr.Message)
			assert.Equal(t, fmt.Sprintf("E%d", status), apiErr.Code)
		})
	}
}

func TestNonJSONErrorBodyPreserved(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded")
	}))

	_, err := c.ListChats(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestDataEnvelopeUnwrapped(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"c1","name":"First"},{"id":"c2","name":"Second"}]}`)
	}))

	chats, err := c.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "First", chats[0].Name)
}

func TestBareJSONFallback(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"c1","name":"Bare"}]`)
	}))

	chats, err := c.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Bare", chats[0].Name)
}

// =============================================================================
// AUTH HANDLING
// =============================================================================

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"data":[]}`)
	}))

	_, err := c.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func Test401FiresSessionInvalidation(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"token expired"}}`)
	}))

	calls := 0
	c.OnUnauthorized(func() { calls++ })

	_, err := c.ListChats(context.Background())
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 1, calls)
}

func TestTokenNeverInFingerprint(t *testing.T) {
	c := New("https://x.example").WithTokenSource(func() string { return "secret-token" })
	fp := c.TokenFingerprint()
	assert.NotContains(t, fp, "secret")
	assert.Len(t, fp, 8)

	c = New("https://x.example")
	assert.Equal(t, "none", c.TokenFingerprint())
}

// =============================================================================
// DOMAIN ERRORS
// =============================================================================

func TestTokenLimitDetectedInErrorBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"Daily token limit reached for your plan"}}`)
	}))

	_, err := c.ListChats(context.Background())
	assert.True(t, errors.Is(err, ErrTokenLimit))
}

func TestLoginIsFormEncoded(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "user@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		fmt.Fprint(w, `{"data":{"access_token":"tok-123","token_type":"bearer"}}`)
	}))

	tok, err := c.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)
}

func TestUserMessageCopy(t *testing.T) {
	assert.Equal(t, "Daily token limit reached. Try again tomorrow.",
		UserMessage(fmt.Errorf("wrap: %w", ErrTokenLimit)))
	assert.Equal(t, "Your session has expired. Please log in again.",
		UserMessage(ErrUnauthorized))
	assert.Contains(t, UserMessage(ErrOffline), "Could not reach the server")
	assert.Equal(t, "backend said so", UserMessage(&APIError{Status: 409, Message: "backend said so"}))
	assert.Equal(t, "", UserMessage(nil))
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestUploadDocumentMultipart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "loc-1", r.FormValue("location_id"))
		assert.Equal(t, "fold-9", r.FormValue("folder_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.pdf", header.Filename)

		fmt.Fprint(w, `{"data":{"id":"doc-1","name":"report.pdf","status":"added"}}`)
	}))

	folderID := "fold-9"
	doc, err := c.UploadDocument(context.Background(), "report.pdf", "loc-1", &folderID,
		bytes.NewReader([]byte("%PDF-1.7 fake")))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "added", string(doc.Status))
}
