// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// ChatLoadedMsg carries one fetched chat with messages.
type ChatLoadedMsg struct {
	Chat      *model.Chat
	FromCache bool
}

// ChatLoadFailedMsg indicates a chat could not be fetched or read from
// the cache.
type ChatLoadFailedMsg struct {
	ChatID string
	Err    error
}

// StreamDoneMsg indicates the streaming send completed.
type StreamDoneMsg struct {
	Result *api.StreamResult
}

// StreamErrorMsg indicates the streaming send failed. The update loop
// rolls back the optimistic messages.
type StreamErrorMsg struct {
	Err error
}
