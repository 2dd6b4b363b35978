// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/model"
	"github.com/docuflow/docuflow-cli/internal/ui/components"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles bubbletea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatLoadedMsg:
		m.chat = msg.Chat
		m.fromCache = msg.FromCache
		m.state = StateReady
		if msg.FromCache {
			m.toasts.Add(components.NewStatusToast("Offline: showing cached conversation."))
		}
		m.refreshViewport(true)
		return m, nil

	case ChatLoadFailedMsg:
		m.state = StateReady
		m.toasts.Add(components.NewRetryableErrorToast(
			components.KeyChatListLoad,
			api.UserMessage(msg.Err),
			m.loadChatCmd(msg.ChatID),
		))
		return m, nil

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if delta, ok := m.buffer.Flush(); ok {
			m.appendToPlaceholder(delta)
			m.refreshViewport(true)
		}
		return m, streamTickCmd()

	case StreamDoneMsg:
		m.finishStream(msg.Result)
		m.refreshViewport(true)
		return m, nil

	case StreamErrorMsg:
		m.rollbackSend()
		m.toasts.Add(components.NewErrorToast(
			components.KeyMessageSend,
			api.UserMessage(msg.Err),
		))
		m.refreshViewport(true)
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Expire()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		return m.handleSend()

	case "r":
		// Retry is offered only while an input-free toast is showing.
		if toast, ok := m.toasts.Newest(); ok && toast.ShowRetry && m.input.Value() == "" {
			m.toasts.Dismiss(toast.Key)
			m.state = StateLoading
			return m, toast.Retry
		}

	case "x":
		if m.toasts.HasToasts() && m.input.Value() == "" {
			m.toasts.DismissNewest()
			return m, nil
		}

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// OPTIMISTIC SEND
// =============================================================================

// handleSend appends the user message and an empty assistant
// placeholder before the network round trip so input feels instant.
// Both are removed if the stream fails.
func (m *Model) handleSend() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.state != StateReady {
		return m, nil
	}

	userMsg := model.NewUserMessage(m.chat.ID, content)
	placeholder := model.NewStreamingAssistantMessage(m.chat.ID)
	m.chat.AppendMessage(userMsg)
	m.chat.AppendMessage(placeholder)

	m.pendingUserID = userMsg.ID
	m.pendingAssistantID = placeholder.ID
	m.lastSent = content
	m.state = StateStreaming
	m.buffer.Reset()
	m.input.Reset()
	m.refreshViewport(true)

	return m, tea.Batch(m.streamCmd(content), streamTickCmd())
}

// appendToPlaceholder folds a flushed delta into the streaming message.
func (m *Model) appendToPlaceholder(delta string) {
	for _, msg := range m.chat.Messages {
		if msg.ID == m.pendingAssistantID {
			msg.Content += delta
			return
		}
	}
}

// finishStream freezes the placeholder with the authoritative final
// content and swaps in the backend-issued message ID.
func (m *Model) finishStream(result *api.StreamResult) {
	if tail, ok := m.buffer.ForceFlush(); ok {
		m.appendToPlaceholder(tail)
	}

	for _, msg := range m.chat.Messages {
		if msg.ID == m.pendingAssistantID {
			msg.Content = result.Content
			msg.Sources = result.Sources
			msg.IsStreaming = false
			if result.MessageID != "" {
				msg.ID = result.MessageID
			}
			break
		}
	}

	m.pendingUserID = ""
	m.pendingAssistantID = ""
	m.state = StateReady
}

// rollbackSend removes both optimistic messages, returning the list to
// its pre-send length, and restores the input so nothing typed is lost.
func (m *Model) rollbackSend() {
	m.chat.RemoveMessage(m.pendingAssistantID)
	m.chat.RemoveMessage(m.pendingUserID)
	m.pendingUserID = ""
	m.pendingAssistantID = ""
	m.buffer.Reset()
	m.state = StateReady

	if m.input.Value() == "" {
		m.input.SetValue(m.lastSent)
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	viewportHeight := height - 4 // header, input bar, status bar
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = newViewport(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = width - 4
	m.refreshViewport(false)
}
