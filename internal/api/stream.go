// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// The streaming send returns a text/event-stream-like chunked body framed
// as "data: {json}" lines with a "[DONE]" sentinel. The consumer folds
// content fragments into one growing message string; a packet carrying
// sources is the final packet and supplies the permanent message ID.

// =============================================================================
// STREAM TYPES
// =============================================================================

// streamPacket is one decoded "data:" frame.
type streamPacket struct {
	Content   string          `json:"content"`
	Sources   json.RawMessage `json:"sources"`
	MessageID string          `json:"message_id"`
}

// StreamUpdate is delivered to the observer after each content fragment.
// Content is the full accumulated text, not the fragment.
type StreamUpdate struct {
	Content string
}

// StreamResult is the outcome of a completed stream.
type StreamResult struct {
	// Content is the final accumulated assistant message text.
	Content string
	// MessageID is the backend-issued permanent ID from the final packet,
	// or "" if the stream ended without one.
	MessageID string
	// Sources are the document citations from the final packet.
	Sources []model.Source
}

// StreamObserver receives incremental updates during a streaming send.
// It is invoked on the reader goroutine; implementations must be fast.
type StreamObserver func(StreamUpdate)

// =============================================================================
// STREAMING SEND
// =============================================================================

// StreamMessage posts a user message to a chat's streaming endpoint and
// consumes the response until stream end.
//
// No retry is attempted on stream failure; the caller re-submits. A
// non-OK initial response is inspected for the daily-token-limit marker
// and surfaced as ErrTokenLimit, distinct from the generic failure.
func (c *Client) StreamMessage(ctx context.Context, chatID, content string, observer StreamObserver) (*StreamResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	reqBody, err := json.Marshal(sendMessageRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("/chat/chats/%s/messages/stream", chatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, wrapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return nil, c.mapError(resp.StatusCode, body)
	}

	return consumeStream(ctx, resp.Body, c.logf, observer)
}

// consumeStream reads the chunked body to completion.
//
// Each read appends decoded bytes to a text buffer which is split on
// newlines; all complete lines are processed and the trailing partial
// line is retained as the new buffer remainder. Malformed JSON on a line
// is logged and skipped. Stream end is the terminal signal; the "[DONE]"
// sentinel itself is a no-op.
func consumeStream(ctx context.Context, body io.Reader, logf func(string, ...any), observer StreamObserver) (*StreamResult, error) {
	var (
		accumulated strings.Builder
		result      StreamResult
		buffer      string
		chunk       = make([]byte, 4096)
	)

	process := func(line string) {
		payload, ok := dataPayload(line)
		if !ok {
			return
		}
		if payload == "[DONE]" {
			return
		}

		var pkt streamPacket
		if err := json.Unmarshal([]byte(payload), &pkt); err != nil {
			if logf != nil {
				logf("stream: skipping malformed line: %v", err)
			}
			return
		}

		if len(pkt.Sources) > 0 && string(pkt.Sources) != "null" {
			// Final packet: permanent ID and citations.
			var sources []model.Source
			if err := json.Unmarshal(pkt.Sources, &sources); err == nil {
				result.Sources = sources
			}
			if pkt.MessageID != "" {
				result.MessageID = pkt.MessageID
			}
			return
		}

		if pkt.Content != "" {
			accumulated.WriteString(pkt.Content)
			if observer != nil {
				observer(StreamUpdate{Content: accumulated.String()})
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := body.Read(chunk)
		if n > 0 {
			buffer += string(chunk[:n])
			lines := strings.Split(buffer, "\n")
			buffer = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				process(line)
			}
		}
		if err == io.EOF {
			// A final line without a trailing newline still counts.
			if buffer != "" {
				process(buffer)
			}
			result.Content = accumulated.String()
			return &result, nil
		}
		if err != nil {
			return nil, wrapTransportError(err)
		}
	}
}

// dataPayload extracts the payload of a "data:" framed line.
func dataPayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	return strings.TrimSpace(line[len("data:"):]), true
}
