// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow-cli/internal/config"
)

// =============================================================================
// COMMAND PARSING
// =============================================================================

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args opens chat", nil, CmdChat},
		{"login", []string{"login"}, CmdLogin},
		{"signup alias", []string{"register"}, CmdSignup},
		{"verify", []string{"verify", "123456"}, CmdVerify},
		{"forgot alias", []string{"forgot", "a@b.c"}, CmdForgotPassword},
		{"reset alias", []string{"reset", "code"}, CmdResetPassword},
		{"logout", []string{"logout"}, CmdLogout},
		{"profile alias", []string{"me"}, CmdProfile},
		{"chats", []string{"chats"}, CmdChats},
		{"folders", []string{"folders", "tree"}, CmdFolders},
		{"docs alias", []string{"documents"}, CmdDocs},
		{"admin", []string{"admin", "orgs"}, CmdAdmin},
		{"sync", []string{"sync", "watch"}, CmdSync},
		{"status alias", []string{"s"}, CmdStatus},
		{"config", []string{"config", "show"}, CmdConfig},
		{"version", []string{"version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"unknown falls back to help", []string{"bogus"}, CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := parseArgs(tt.argv)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseArgsGlobalFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"--quiet", "chats", "--verbose", "list", "--json"})

	assert.Equal(t, CmdChats, cmd)
	assert.True(t, args.Quiet)
	assert.True(t, args.Verbose)
	assert.True(t, args.JSON)
	assert.Equal(t, []string{"list"}, args.Raw)
}

func TestParseArgsCaseInsensitiveCommand(t *testing.T) {
	cmd, _ := parseArgs([]string{"LOGIN"})
	assert.Equal(t, CmdLogin, cmd)
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParserFlagsAndPositionals(t *testing.T) {
	p := NewArgParser([]string{"create", "Legal", "--parent", "f-9", "--confirm", "--location=loc-1"})

	assert.Equal(t, "create", p.Subcommand())
	assert.Equal(t, "Legal", p.Positional(1))
	assert.Equal(t, "f-9", p.Flag("parent"))
	assert.Equal(t, "loc-1", p.Flag("location"))
	assert.True(t, p.BoolFlag("confirm"))
	assert.False(t, p.BoolFlag("missing"))
	assert.Equal(t, 2, p.PositionalCount())
}

func TestArgParserExplicitBoolValues(t *testing.T) {
	p := NewArgParser([]string{"--markdown=false", "--json=true"})

	assert.False(t, p.BoolFlag("markdown"))
	assert.True(t, p.BoolFlag("json"))
	assert.True(t, p.HasFlag("markdown"))
}

func TestArgParserMultiWordName(t *testing.T) {
	p := NewArgParser([]string{"new", "Q3", "contract", "review"})

	got := p.PositionalFrom(1)
	assert.Equal(t, []string{"Q3", "contract", "review"}, got)
}

func TestArgParserOutOfRange(t *testing.T) {
	p := NewArgParser(nil)

	assert.Equal(t, "", p.Subcommand())
	assert.Equal(t, "", p.Positional(3))
	assert.Empty(t, p.PositionalFrom(1))
	assert.Equal(t, "fallback", p.FlagOrDefault("x", "fallback"))
}

// =============================================================================
// VALIDATION SHORT-CIRCUITS
// =============================================================================

func TestFolderNameRequiredMessage(t *testing.T) {
	// Exact copy shown to the user when creating a folder without a name.
	assert.Equal(t, "Folder name is required", ErrFolderNameRequired.Error())
}

// =============================================================================
// NAME COLLECTION
// =============================================================================

func TestCollectName(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"joins words", []string{"Q3", "contract", "review"}, "Q3 contract review"},
		{"trims surrounding whitespace", []string{"  Legal  "}, "Legal"},
		{"whitespace only collapses to empty", []string{"   ", "\t"}, ""},
		{"empty input", nil, ""},
		// Combining acute accent folds into the precomposed rune, so the
		// backend sees one canonical spelling of the same name.
		{"normalizes to NFC", []string{"Cafe\u0301"}, "Caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectName(tt.parts))
		})
	}
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

func TestRenderAnswerPassesPlainTextThrough(t *testing.T) {
	const answer = "The termination clause is on page 12."
	assert.Equal(t, answer, renderAnswer(answer))
}

func TestRenderAnswerKeepsUnclosedFenceIntact(t *testing.T) {
	const answer = "Start of a block:\n```go\nfunc main() {"
	assert.Equal(t, answer, renderAnswer(answer))
}

func TestRenderAnswerPreservesProse(t *testing.T) {
	got := renderAnswer("before\n```zzz\nplain words here\n```\nafter")

	// The fence markers are consumed; prose outside and code words inside
	// survive whatever styling chroma applies.
	assert.Contains(t, got, "before")
	assert.Contains(t, got, "after")
	assert.Contains(t, got, "plain")
	assert.NotContains(t, got, "```")
}

// =============================================================================
// CONFIG KEY MAPPING
// =============================================================================

func TestSetConfigKey(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, setConfigKey(cfg, "api.base_url", "https://api.example.com"))
	require.NoError(t, setConfigKey(cfg, "location_id", "loc-42"))
	require.NoError(t, setConfigKey(cfg, "sync.watch_dir", "/tmp/inbox"))
	require.NoError(t, setConfigKey(cfg, "cache.enabled", "false"))
	require.NoError(t, setConfigKey(cfg, "ui.markdown", "true"))

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "loc-42", cfg.LocationID)
	assert.Equal(t, "/tmp/inbox", cfg.Sync.WatchDir)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.UI.Markdown)
}

func TestSetConfigKeyRejectsUnknown(t *testing.T) {
	cfg := config.Default()

	err := setConfigKey(cfg, "nope.nothing", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestSetConfigKeyRejectsBadBool(t *testing.T) {
	cfg := config.Default()

	err := setConfigKey(cfg, "sync.enabled", "maybe")
	require.Error(t, err)
}

// =============================================================================
// PATH EXPANSION
// =============================================================================

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/inbox", expandHome("~/inbox"))
	assert.Equal(t, "/home/tester", expandHome("~"))
	assert.Equal(t, "/var/data", expandHome("/var/data"))
	assert.Equal(t, "relative/path", expandHome("relative/path"))
}
