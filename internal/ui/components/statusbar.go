// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/docuflow/docuflow-cli/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the single-line footer: account, chat name and
// remaining daily token allowance.
type StatusBar struct {
	Email       string
	ChatName    string
	TokensLeft  int64 // -1 means no limit
	Streaming   bool
	CacheOnline bool
}

// Render renders the status bar at the given width.
func (s StatusBar) Render(width int) string {
	var left []string
	if s.Email != "" {
		left = append(left, s.Email)
	}
	if s.ChatName != "" {
		left = append(left, s.ChatName)
	}
	if s.Streaming {
		left = append(left, "streaming…")
	}
	if !s.CacheOnline {
		left = append(left, "offline cache")
	}

	right := ""
	if s.TokensLeft >= 0 {
		right = fmt.Sprintf("%d tokens left today", s.TokensLeft)
	}

	leftText := strings.Join(left, " · ")
	gap := width - lipgloss.Width(leftText) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	bar := leftText + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(bar)
}

// TerminalProfile reports the detected color capability, used by the
// version command for diagnostics.
func TerminalProfile() string {
	switch termenv.ColorProfile() {
	case termenv.TrueColor:
		return "truecolor"
	case termenv.ANSI256:
		return "256-color"
	case termenv.ANSI:
		return "ansi"
	default:
		return "monochrome"
	}
}
