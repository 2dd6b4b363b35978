// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader yields the input in fixed-size chunks so the consumer
// sees frames split across reads, including mid-line.
type chunkedReader struct {
	data  []byte
	pos   int
	chunk int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

const sampleStream = "data: {\"content\":\"Hel\"}\n\n" +
	"data: {\"content\":\"lo \"}\n\n" +
	"data: {\"content\":\"world\"}\n\n" +
	"data: {\"sources\":[{\"document_id\":\"d1\",\"page\":3}],\"message_id\":\"msg-77\"}\n\n" +
	"data: [DONE]\n"

func consume(t *testing.T, body io.Reader) (*StreamResult, []string) {
	t.Helper()
	var updates []string
	result, err := consumeStream(context.Background(), body, nil, func(u StreamUpdate) {
		updates = append(updates, u.Content)
	})
	require.NoError(t, err)
	return result, updates
}

// =============================================================================
// FRAME HANDLING
// =============================================================================

func TestConsumeStreamAccumulatesContent(t *testing.T) {
	result, updates := consume(t, strings.NewReader(sampleStream))

	assert.Equal(t, "Hello world", result.Content)
	assert.Equal(t, "msg-77", result.MessageID)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "d1", result.Sources[0].DocumentID)

	// Each update carries the full accumulated value.
	assert.Equal(t, []string{"Hel", "Hello ", "Hello world"}, updates)
}

// Feeding the same chunked byte sequence twice must yield the same final
// accumulated string, regardless of chunk boundaries.
func TestConsumeStreamIdempotent(t *testing.T) {
	for _, chunk := range []int{1, 3, 7, 16, 4096} {
		first, _ := consume(t, &chunkedReader{data: []byte(sampleStream), chunk: chunk})
		second, _ := consume(t, &chunkedReader{data: []byte(sampleStream), chunk: chunk})
		assert.Equal(t, first.Content, second.Content, "chunk size %d", chunk)
		assert.Equal(t, "Hello world", first.Content, "chunk size %d", chunk)
		assert.Equal(t, "msg-77", first.MessageID, "chunk size %d", chunk)
	}
}

// The [DONE] sentinel is ignored; it must not mutate accumulated content.
func TestConsumeStreamIgnoresDoneSentinel(t *testing.T) {
	stream := "data: {\"content\":\"abc\"}\n\ndata: [DONE]\n\ndata: {\"content\":\"def\"}\n"
	result, _ := consume(t, strings.NewReader(stream))
	// Content after [DONE] still folds in; only stream end terminates.
	assert.Equal(t, "abcdef", result.Content)
}

func TestConsumeStreamSkipsMalformedJSON(t *testing.T) {
	logged := 0
	stream := "data: {\"content\":\"ok\"}\n" +
		"data: {not json at all\n" +
		"data: {\"content\":\"!\"}\n"

	result, err := consumeStream(context.Background(), strings.NewReader(stream),
		func(string, ...any) { logged++ }, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok!", result.Content)
	assert.Equal(t, 1, logged, "malformed line must be logged, not fatal")
}

func TestConsumeStreamIgnoresNonDataLines(t *testing.T) {
	stream := ": keepalive comment\n" +
		"event: message\n" +
		"data: {\"content\":\"x\"}\n"
	result, _ := consume(t, strings.NewReader(stream))
	assert.Equal(t, "x", result.Content)
}

func TestConsumeStreamFinalLineWithoutNewline(t *testing.T) {
	stream := "data: {\"content\":\"tail\"}"
	result, _ := consume(t, strings.NewReader(stream))
	assert.Equal(t, "tail", result.Content)
}

func TestConsumeStreamSourcesPacketCarriesNoContent(t *testing.T) {
	stream := "data: {\"content\":\"body\"}\n" +
		"data: {\"content\":\"ignored\",\"sources\":[],\"message_id\":\"m1\"}\n"
	result, _ := consume(t, strings.NewReader(stream))
	// A frame with a sources field is the final packet; its content is not
	// folded into the message text.
	assert.Equal(t, "body", result.Content)
}

func TestConsumeStreamHandlesCRLF(t *testing.T) {
	stream := "data: {\"content\":\"a\"}\r\ndata: {\"content\":\"b\"}\r\n"
	result, _ := consume(t, strings.NewReader(stream))
	assert.Equal(t, "ab", result.Content)
}

// =============================================================================
// HTTP-LEVEL BEHAVIOR
// =============================================================================

func TestStreamMessageRequiresToken(t *testing.T) {
	c := New("https://x.example")
	_, err := c.StreamMessage(context.Background(), "chat-1", "hi", nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestStreamMessageEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/chats/chat-1/messages/stream", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sampleStream)
	}))
	defer srv.Close()

	c := New(srv.URL).
		WithTokenSource(func() string { return "tok" }).
		WithLogger(func(string, ...any) {})

	result, err := c.StreamMessage(context.Background(), "chat-1", "hello?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", result.Content)
	assert.Equal(t, "msg-77", result.MessageID)
}

// A non-OK initial response carrying the daily-token-limit marker must
// surface as the distinct non-retryable condition.
func TestStreamMessageTokenLimitOnInitialResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"daily token limit reached"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL).
		WithTokenSource(func() string { return "tok" }).
		WithLogger(func(string, ...any) {})

	_, err := c.StreamMessage(context.Background(), "chat-1", "hi", nil)
	assert.True(t, errors.Is(err, ErrTokenLimit))
	assert.False(t, isRetryable(err))
}

func TestStreamMessage401TearsDownSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"expired"}}`)
	}))
	defer srv.Close()

	torn := 0
	c := New(srv.URL).
		WithTokenSource(func() string { return "tok" }).
		WithLogger(func(string, ...any) {}).
		OnUnauthorized(func() { torn++ })

	_, err := c.StreamMessage(context.Background(), "chat-1", "hi", nil)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, 1, torn)
}

func TestConsumeStreamContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := consumeStream(ctx, strings.NewReader(sampleStream), nil, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}
