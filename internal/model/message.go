// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data records mirrored from the docuflow
// backend's JSON responses. Nothing here is authoritative: records are
// fetched, displayed and mutated only through the API, with the single
// exception of a streaming assistant message whose content grows in place
// until the stream completes.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Source is a document citation attached to an assistant message.
type Source struct {
	DocumentID   string  `json:"document_id,omitempty"`
	DocumentName string  `json:"document_name,omitempty"`
	Page         int     `json:"page,omitempty"`
	Score        float64 `json:"score,omitempty"`
}

// Message is a single message in a chat.
//
// While an assistant reply is streaming, Content is replaced on every
// accumulated update and IsStreaming is true; when the stream ends the
// content is frozen and the backend-issued ID replaces the temporary one.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	HasImage  bool      `json:"has_image,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Client-side streaming state, never serialized.
	IsStreaming bool `json:"-"`
}

// NewUserMessage creates a user message with a client-generated temporary ID.
// The temporary ID is only used until the backend confirms the message.
func NewUserMessage(chatID, content string) *Message {
	return &Message{
		ID:        TempID(),
		ChatID:    chatID,
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewStreamingAssistantMessage creates an empty assistant message placeholder
// that will be filled in as stream chunks arrive.
func NewStreamingAssistantMessage(chatID string) *Message {
	return &Message{
		ID:          TempID(),
		ChatID:      chatID,
		Role:        RoleAssistant,
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

// TempID returns a client-generated message identifier. The backend replaces
// it with a permanent ID in the final stream packet.
func TempID() string {
	return "tmp-" + uuid.NewString()
}

// IsTempID reports whether id was generated client-side.
func IsTempID(id string) bool {
	return len(id) > 4 && id[:4] == "tmp-"
}
