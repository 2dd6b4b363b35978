// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

const loadTimeout = 30 * time.Second

// loadChatCmd fetches the chat with retry; on failure it falls back to
// the local cache so a previously viewed conversation still renders.
func (m *Model) loadChatCmd(chatID string) tea.Cmd {
	client, cache := m.client, m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var chat *model.Chat
		err := client.WithRetry(ctx, func(ctx context.Context) error {
			var err error
			chat, err = client.GetChat(ctx, chatID)
			return err
		})
		if err == nil {
			if cache != nil {
				if cerr := cache.PutChat(ctx, chat); cerr != nil {
					// Cache write failure never blocks the view.
					_ = cerr
				}
			}
			return ChatLoadedMsg{Chat: chat}
		}

		if cache != nil && !errors.Is(err, api.ErrUnauthorized) {
			if cached, cerr := cache.Chat(ctx, chatID); cerr == nil {
				return ChatLoadedMsg{Chat: cached, FromCache: true}
			}
		}
		return ChatLoadFailedMsg{ChatID: chatID, Err: err}
	}
}

// streamCmd runs the streaming send. Token deltas land in the shared
// buffer for the tick loop to drain; completion or failure comes back
// as a message.
func (m *Model) streamCmd(content string) tea.Cmd {
	client, buffer, chatID := m.client, m.buffer, m.chat.ID
	return func() tea.Msg {
		prev := 0
		result, err := client.StreamMessage(context.Background(), chatID, content,
			func(u api.StreamUpdate) {
				// The observer sees the full accumulated text; feed only
				// the fresh tail into the frame buffer.
				if len(u.Content) > prev {
					buffer.Write(u.Content[prev:])
					prev = len(u.Content)
				}
			})
		if err != nil {
			return StreamErrorMsg{Err: err}
		}
		return StreamDoneMsg{Result: result}
	}
}
