// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repeated failures of the same list load must collapse into one toast.
func TestToastDeduplicationByKey(t *testing.T) {
	m := NewToastManager()

	m.Add(NewErrorToast(KeyChatListLoad, "Couldn't load chats."))
	m.Add(NewErrorToast(KeyChatListLoad, "Couldn't load chats."))
	m.Add(NewErrorToast(KeyChatListLoad, "Couldn't load chats."))

	assert.Len(t, m.Toasts(), 1)
}

func TestToastKeylessNeverDeduplicated(t *testing.T) {
	m := NewToastManager()

	m.Add(NewStatusToast("Uploaded a.pdf"))
	m.Add(NewStatusToast("Uploaded b.pdf"))

	assert.Len(t, m.Toasts(), 2)
}

func TestToastReplacementResetsTimer(t *testing.T) {
	m := NewToastManager()

	stale := NewErrorToast(KeyDocListLoad, "Couldn't load documents.")
	stale.CreatedAt = time.Now().Add(-ErrorToastDuration)
	m.Add(stale)
	m.Add(NewErrorToast(KeyDocListLoad, "Couldn't load documents."))

	assert.Len(t, m.Expire(), 1, "replacement must survive expiry")
}

func TestToastExpiry(t *testing.T) {
	m := NewToastManager()

	expired := NewStatusToast("old")
	expired.CreatedAt = time.Now().Add(-time.Minute)
	m.Add(expired)
	m.Add(NewStatusToast("fresh"))

	remaining := m.Expire()
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Message)
}

func TestToastStackCapped(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 10; i++ {
		m.Add(NewStatusToast("toast"))
	}
	assert.Len(t, m.Toasts(), 5)
}

func TestToastDismiss(t *testing.T) {
	m := NewToastManager()
	m.Add(NewRetryableErrorToast(KeyFolderListLoad, "Couldn't load folders.", nil))
	require.True(t, m.HasToasts())

	m.Dismiss(KeyFolderListLoad)
	assert.False(t, m.HasToasts())
}

func TestToastNewestFirst(t *testing.T) {
	m := NewToastManager()
	m.Add(NewStatusToast("first"))
	m.Add(NewStatusToast("second"))

	newest, ok := m.Newest()
	require.True(t, ok)
	assert.Equal(t, "second", newest.Message)

	m.DismissNewest()
	newest, ok = m.Newest()
	require.True(t, ok)
	assert.Equal(t, "first", newest.Message)
}
