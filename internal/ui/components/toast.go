// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the docuflow TUI.
//
// This file implements non-blocking toast notifications. Toasts appear
// in the bottom-right corner and auto-dismiss; repeated failures of the
// same operation reuse a fixed key so the screen never fills with
// duplicates of the same complaint.
package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docuflow/docuflow-cli/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast (cyan)
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast (rose)
	ToastKindError
	// ToastKindSuccess is a success toast (emerald)
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

// Well-known toast keys. A key identifies the operation that failed,
// not the individual failure, so retries replace the existing toast
// instead of stacking a new one.
const (
	KeyChatListLoad   = "chat-list-load"
	KeyFolderListLoad = "folder-list-load"
	KeyDocListLoad    = "doc-list-load"
	KeyMessageSend    = "message-send"
)

// Toast is a single notification.
type Toast struct {
	// Key de-duplicates toasts; "" means never deduplicated.
	Key       string
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration

	// ShowRetry advertises the retry keybinding; Retry is the command
	// dispatched when the user takes it.
	ShowRetry bool
	Retry     tea.Cmd
}

// NewErrorToast creates an error toast.
func NewErrorToast(key, message string) Toast {
	return Toast{
		Key:       key,
		Message:   message,
		Kind:      ToastKindError,
		CreatedAt: time.Now(),
		Duration:  ErrorToastDuration,
	}
}

// NewRetryableErrorToast creates an error toast carrying a retry command.
func NewRetryableErrorToast(key, message string, retry tea.Cmd) Toast {
	toast := NewErrorToast(key, message)
	toast.ShowRetry = true
	toast.Retry = retry
	return toast
}

// NewStatusToast creates an informational toast.
func NewStatusToast(message string) Toast {
	return Toast{
		Message:   message,
		Kind:      ToastKindStatus,
		CreatedAt: time.Now(),
		Duration:  DefaultToastDuration,
	}
}

// NewSuccessToast creates a success toast.
func NewSuccessToast(message string) Toast {
	return Toast{
		Message:   message,
		Kind:      ToastKindSuccess,
		CreatedAt: time.Now(),
		Duration:  DefaultToastDuration,
	}
}

// IsExpired returns true if the toast should be dismissed.
func (t *Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager manages the visible toast stack. Safe for concurrent use
// since streams report from their own goroutines.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	maxToasts int
}

// NewToastManager creates a toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{maxToasts: 5}
}

// Add inserts a toast. A toast with a non-empty key replaces any
// existing toast with the same key in place, resetting its timer.
func (m *ToastManager) Add(toast Toast) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if toast.Key != "" {
		for i := range m.toasts {
			if m.toasts[i].Key == toast.Key {
				m.toasts[i] = toast
				return
			}
		}
	}

	m.toasts = append([]Toast{toast}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
}

// Dismiss removes the toast with the given key.
func (m *ToastManager) Dismiss(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.toasts {
		if m.toasts[i].Key == key {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast.
func (m *ToastManager) DismissNewest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Newest returns the most recent toast, if any.
func (m *ToastManager) Newest() (Toast, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) == 0 {
		return Toast{}, false
	}
	return m.toasts[0], true
}

// Expire drops expired toasts and returns the survivors.
func (m *ToastManager) Expire() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, toast := range m.toasts {
		if !toast.IsExpired() {
			active = append(active, toast)
		}
	}
	m.toasts = active
	return m.snapshot()
}

// Toasts returns a copy of the visible toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// HasToasts returns true if any toast is visible.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

func (m *ToastManager) snapshot() []Toast {
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd returns a command that ticks toasts every 100ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast notification.
func RenderToast(toast Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var accent lipgloss.AdaptiveColor
	var icon string
	switch toast.Kind {
	case ToastKindError:
		accent = styles.Rose
		icon = "✗"
	case ToastKindSuccess:
		accent = styles.Emerald
		icon = "✓"
	default:
		accent = styles.Cyan
		icon = "•"
	}

	iconStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	messageStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 8)

	content := iconStyle.Render(icon+" ") + messageStyle.Render(toast.Message)

	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	hints := []string{"[x] Dismiss"}
	if toast.ShowRetry {
		hints = append([]string{"[r] Retry"}, hints...)
	}
	content += "\n" + hintStyle.Render(strings.Join(hints, "  "))

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderToastStack renders the toast stack in the bottom-right corner.
func RenderToastStack(toasts []Toast, width, height int) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		rendered = append(rendered, RenderToast(toast, width))
	}

	stack := lipgloss.NewStyle().
		MarginRight(2).
		MarginBottom(1).
		Render(lipgloss.JoinVertical(lipgloss.Right, rendered...))

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Right, lipgloss.Bottom, stack)
	}
	return stack
}
