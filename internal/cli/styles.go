// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for plain (non-TUI) command output.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init pins the lipgloss color profile so piped output stays plain text.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	// LabelStyle is used for field labels in key/value listings.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(18)

	// ValueStyle is used for regular values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// SuccessStyle is used for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle is used for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is used for secondary information and hints.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// PromptStyle is used for the REPL input prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	// SourceStyle is used for citation footnotes under answers.
	SourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("72"))
)

// RenderLabel renders a key/value row with a fixed-width label.
func RenderLabel(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

// RenderSeparator renders a horizontal rule sized to the terminal.
func RenderSeparator() string {
	width := GetTerminalWidth()
	if width > 80 {
		width = 80
	}
	return DimStyle.Render(strings.Repeat("-", width))
}
