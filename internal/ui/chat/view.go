// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/docuflow/docuflow-cli/internal/model"
	"github.com/docuflow/docuflow-cli/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "initializing…"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	view := b.String()
	if m.toasts.HasToasts() {
		overlay := components.RenderToastStack(m.toasts.Toasts(), m.width, m.height)
		// The toast stack is placed over the whole screen; rendering it
		// last wins in most terminals without a compositing pass.
		view = lipgloss.JoinVertical(lipgloss.Left, view, overlay)
	}
	return view
}

func (m *Model) renderHeader() string {
	title := m.chat.Name
	if title == "" {
		title = "New conversation"
	}
	if m.state == StateLoading {
		title = m.spinner.View() + " Loading…"
	}
	return m.theme.Header.Width(m.width).Render(
		runewidth.Truncate(title, m.width-2, "…"))
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("")
	if m.state == StateStreaming {
		return m.theme.InputBar.Width(m.width).Render(
			prompt + m.spinner.View() + " streaming reply…")
	}
	return m.theme.InputBar.Width(m.width).Render(prompt + m.input.View())
}

func (m *Model) renderStatusBar() string {
	tokensLeft := int64(-1)
	if profile := m.session.Profile(); profile != nil {
		tokensLeft = profile.TokensRemaining()
	}
	bar := components.StatusBar{
		Email:       m.session.Email(),
		ChatName:    m.chat.Name,
		TokensLeft:  tokensLeft,
		Streaming:   m.state == StateStreaming,
		CacheOnline: !m.fromCache,
	}
	return bar.Render(m.width)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// refreshViewport rebuilds the transcript. When follow is true the
// viewport snaps to the bottom, tracking the stream.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}

	var blocks []string
	for _, msg := range m.chat.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessage(msg *model.Message) string {
	width := m.width - 6
	if width < 20 {
		width = 20
	}

	label := m.theme.Timestamp.Render(msg.Role.DisplayName())

	var body string
	switch msg.Role {
	case model.RoleAssistant:
		content := msg.Content
		if msg.IsStreaming && content == "" {
			content = m.spinner.View() + " thinking…"
		} else if !msg.IsStreaming {
			// Only frozen content goes through markdown; re-rendering a
			// growing stream every frame is too slow.
			content = components.RenderMarkdown(content, width)
		}
		body = m.theme.AssistantBubble.MaxWidth(width).Render(content)
		if len(msg.Sources) > 0 {
			body += "\n" + m.renderSources(msg.Sources)
		}
	default:
		body = m.theme.UserBubble.MaxWidth(width).Render(msg.Content)
	}

	return label + "\n" + body
}

func (m *Model) renderSources(sources []model.Source) string {
	var lines []string
	for _, src := range sources {
		line := "  ↳ " + src.DocumentName
		if src.Page > 0 {
			line += fmt.Sprintf(" (p. %d)", src.Page)
		}
		lines = append(lines, m.theme.SourceLine.Render(line))
	}
	return strings.Join(lines, "\n")
}

// newViewport builds the transcript viewport.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}
