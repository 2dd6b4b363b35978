// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the pre-built styles used by the chat view.
type Theme struct {
	Header    lipgloss.Style
	StatusBar lipgloss.Style

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SourceLine      lipgloss.Style
	Timestamp       lipgloss.Style

	InputBar    lipgloss.Style
	InputPrompt lipgloss.Style

	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultTheme builds the standard docuflow theme.
func DefaultTheme() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Foreground(Indigo).
			Bold(true).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),

		UserBubble: lipgloss.NewStyle().
			Foreground(UserBubbleFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			Padding(0, 1),

		AssistantBubble: lipgloss.NewStyle().
			Foreground(AssistantBubbleFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(AssistantBubbleBorder).
			Padding(0, 1),

		SourceLine: lipgloss.NewStyle().
			Foreground(SourceFg).
			Italic(true),

		Timestamp: lipgloss.NewStyle().
			Foreground(TextMuted),

		InputBar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Overlay),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),

		Error:   lipgloss.NewStyle().Foreground(Rose).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(Amber),
		Success: lipgloss.NewStyle().Foreground(Emerald),
		Muted:   lipgloss.NewStyle().Foreground(TextMuted),
	}
}
