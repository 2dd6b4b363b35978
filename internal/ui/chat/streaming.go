// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the bubbletea chat view.
//
// This file implements the streaming buffer that batches incoming
// tokens for rendering at a capped frame rate. Flushing on every token
// repaints far faster than the terminal can show; batching keeps the
// stream smooth without burning CPU.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer accumulates stream tokens between frames. Tokens are
// written from the stream goroutine and drained from the bubbletea
// update loop, so every operation takes the lock.
//
// A flush happens when either the batch size threshold is reached or
// the minimum frame interval has elapsed since the last flush.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize int
	minFlush  time.Duration
}

const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
)

// NewStreamingBuffer creates a buffer with the default batch size and
// a 30fps frame cap.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{
		batchSize: defaultBatchSize,
		minFlush:  time.Second / defaultMaxFPS,
		lastFlush: time.Now(),
	}
}

// Write adds a token fragment to the buffer.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns buffered content if a flush threshold has been reached.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && time.Since(sb.lastFlush) < sb.minFlush {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush returns all buffered content regardless of thresholds.
// Called when a stream completes so no tail tokens are dropped.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset clears the buffer without flushing. Used when a stream is
// cancelled or a new send begins.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of unflushed tokens.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// STREAM TICK
// =============================================================================

// StreamTickMsg drives buffer flushes while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// streamTickCmd ticks at the frame cap while streaming.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
