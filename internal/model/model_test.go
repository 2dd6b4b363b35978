// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
)

func strPtr(s string) *string { return &s }

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("chat-1", "hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.ChatID != "chat-1" {
		t.Errorf("ChatID = %q, want chat-1", msg.ChatID)
	}
	if !IsTempID(msg.ID) {
		t.Errorf("expected temp ID, got %q", msg.ID)
	}
	if msg.IsStreaming {
		t.Error("user message must not be marked streaming")
	}
}

func TestNewStreamingAssistantMessage(t *testing.T) {
	msg := NewStreamingAssistantMessage("chat-1")

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", msg.Role, RoleAssistant)
	}
	if !msg.IsStreaming {
		t.Error("placeholder must start streaming")
	}
	if msg.Content != "" {
		t.Errorf("placeholder content = %q, want empty", msg.Content)
	}
}

func TestTempIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := TempID()
		if seen[id] {
			t.Fatalf("duplicate temp ID: %s", id)
		}
		seen[id] = true
	}
}

func TestChatRemoveMessage(t *testing.T) {
	chat := &Chat{ID: "c1"}
	user := NewUserMessage("c1", "question")
	assistant := NewStreamingAssistantMessage("c1")
	chat.AppendMessage(user)
	chat.AppendMessage(assistant)

	before := len(chat.Messages)
	if !chat.RemoveMessage(assistant.ID) {
		t.Fatal("RemoveMessage(assistant) = false")
	}
	if !chat.RemoveMessage(user.ID) {
		t.Fatal("RemoveMessage(user) = false")
	}
	if len(chat.Messages) != before-2 {
		t.Errorf("len after rollback = %d, want %d", len(chat.Messages), before-2)
	}
	if chat.RemoveMessage("missing") {
		t.Error("RemoveMessage of unknown ID should return false")
	}
}

// =============================================================================
// FOLDER TREE TESTS
// =============================================================================

func TestBuildFolderTree(t *testing.T) {
	flat := []*Folder{
		{ID: "b", Name: "Beta", ParentFolderID: nil},
		{ID: "a", Name: "Alpha", ParentFolderID: nil},
		{ID: "a1", Name: "Nested", ParentFolderID: strPtr("a")},
		{ID: "a2", Name: "Another", ParentFolderID: strPtr("a")},
		{ID: "a1x", Name: "Deep", ParentFolderID: strPtr("a1")},
	}

	roots := BuildFolderTree(flat)

	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	// Sorted by name: Alpha, Beta.
	if roots[0].Name != "Alpha" || roots[1].Name != "Beta" {
		t.Errorf("root order = %s, %s", roots[0].Name, roots[1].Name)
	}
	alpha := roots[0]
	if len(alpha.Folders) != 2 {
		t.Fatalf("alpha children = %d, want 2", len(alpha.Folders))
	}
	if alpha.Folders[0].Name != "Another" || alpha.Folders[1].Name != "Nested" {
		t.Errorf("child order = %s, %s", alpha.Folders[0].Name, alpha.Folders[1].Name)
	}
	if len(alpha.Folders[1].Folders) != 1 || alpha.Folders[1].Folders[0].ID != "a1x" {
		t.Error("deep nesting lost")
	}
}

func TestBuildFolderTreeOrphanBecomesRoot(t *testing.T) {
	flat := []*Folder{
		{ID: "x", Name: "Orphan", ParentFolderID: strPtr("gone")},
	}
	roots := BuildFolderTree(flat)
	if len(roots) != 1 || roots[0].ID != "x" {
		t.Error("orphaned folder must surface as a root, not vanish")
	}
}

func TestBuildFolderTreeIdempotent(t *testing.T) {
	flat := []*Folder{
		{ID: "a", Name: "A"},
		{ID: "a1", Name: "A1", ParentFolderID: strPtr("a")},
	}
	BuildFolderTree(flat)
	roots := BuildFolderTree(flat)
	if len(roots) != 1 || len(roots[0].Folders) != 1 {
		t.Error("second assembly must not duplicate children")
	}
}

// =============================================================================
// DOCUMENT TESTS
// =============================================================================

func TestCountProcessable(t *testing.T) {
	docs := []*Document{
		{ID: "1", Status: StatusAdded},
		{ID: "2", Status: StatusProcessing},
		{ID: "3", Status: StatusProcessed},
		{ID: "4", Status: StatusAdded},
		{ID: "5", Status: StatusFailed},
	}
	if got := CountProcessable(docs); got != 2 {
		t.Errorf("CountProcessable = %d, want 2", got)
	}
}

func TestIsPDFName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"notes.txt", false},
		{"archive.pdf.zip", false},
		{"pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPDFName(tt.name); got != tt.want {
			t.Errorf("IsPDFName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestLandingTarget(t *testing.T) {
	if got := RoleEndUser.LandingTarget(); got != "/chat" {
		t.Errorf("end_user landing = %q, want /chat", got)
	}
	if got := RoleOrgAdmin.LandingTarget(); got != "/admin" {
		t.Errorf("org_admin landing = %q, want /admin", got)
	}
}

func TestTokensRemaining(t *testing.T) {
	p := &Profile{TokensUsedDay: 900, TokenLimitDay: 1000}
	if got := p.TokensRemaining(); got != 100 {
		t.Errorf("TokensRemaining = %d, want 100", got)
	}
	p = &Profile{TokensUsedDay: 2000, TokenLimitDay: 1000}
	if got := p.TokensRemaining(); got != 0 {
		t.Errorf("over-limit TokensRemaining = %d, want 0", got)
	}
	p = &Profile{TokensUsedDay: 10}
	if got := p.TokensRemaining(); got != -1 {
		t.Errorf("unlimited TokensRemaining = %d, want -1", got)
	}
}
