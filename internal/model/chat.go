// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat is a conversation record as returned by the backend.
type Chat struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated only by the single-chat endpoint.
	Messages []*Message `json:"messages,omitempty"`
}

// LastMessage returns the most recent message, or nil if none are loaded.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// AppendMessage adds a message to the loaded message list.
// The list is append-only per chat view; removal only happens when an
// optimistic send is rolled back.
func (c *Chat) AppendMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// RemoveMessage deletes the message with the given ID from the loaded list.
// Returns true if a message was removed. Used to roll back the optimistic
// user message and the streaming placeholder after a failed send.
func (c *Chat) RemoveMessage(id string) bool {
	for i, m := range c.Messages {
		if m.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			return true
		}
	}
	return false
}
