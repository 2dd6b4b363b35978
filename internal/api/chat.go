// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// ListChats returns the caller's chats, most recent first.
func (c *Client) ListChats(ctx context.Context) ([]*model.Chat, error) {
	var chats []*model.Chat
	if err := c.doJSON(ctx, http.MethodGet, "/chat/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChat returns one chat with its message history.
func (c *Client) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.doJSON(ctx, http.MethodGet, "/chat/chats/"+id, nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// CreateChat creates a named chat.
func (c *Client) CreateChat(ctx context.Context, name string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.doJSON(ctx, http.MethodPost, "/chat/chats", createChatRequest{Name: name}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// DeleteChat removes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/chat/chats/%s", id), nil, nil)
}
