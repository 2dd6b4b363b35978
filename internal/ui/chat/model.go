// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/model"
	"github.com/docuflow/docuflow-cli/internal/session"
	"github.com/docuflow/docuflow-cli/internal/storage"
	"github.com/docuflow/docuflow-cli/internal/ui/components"
	"github.com/docuflow/docuflow-cli/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateLoading   State = iota // Fetching the chat
	StateReady                  // Ready for input
	StateStreaming              // Receiving a streamed reply
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the bubbletea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int

	client  *api.Client
	session *session.Manager
	cache   *storage.Cache

	chat      *model.Chat
	fromCache bool

	// Optimistic send bookkeeping. Both IDs are temporary until the
	// final stream packet confirms; on error both messages are removed.
	pendingUserID      string
	pendingAssistantID string
	lastSent           string

	buffer *StreamingBuffer
	toasts *components.ToastManager

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	ready    bool
}

// New creates a chat view for the given chat ID. The cache may be nil
// when offline fallback is disabled.
func New(client *api.Client, sess *session.Manager, cache *storage.Cache, chatID string) *Model {
	input := textinput.New()
	input.Placeholder = "Ask about your documents…"
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Indigo)

	return &Model{
		state:   StateLoading,
		theme:   styles.DefaultTheme(),
		client:  client,
		session: sess,
		cache:   cache,
		chat:    &model.Chat{ID: chatID},
		buffer:  NewStreamingBuffer(),
		toasts:  components.NewToastManager(),
		input:   input,
		spinner: sp,
	}
}

// Init starts the initial chat load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadChatCmd(m.chat.ID),
		m.spinner.Tick,
		components.ToastTickCmd(),
	)
}

// Chat exposes the loaded chat for tests and the REPL handoff.
func (m *Model) Chat() *model.Chat {
	return m.chat
}

// MessageCount returns the number of messages currently in the list.
func (m *Model) MessageCount() int {
	return len(m.chat.Messages)
}
