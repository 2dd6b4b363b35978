// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TruncateRunes truncates a string to a maximum number of runes.
// Safe for UTF-8 strings as it counts characters, not bytes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// FirstLine returns the first line of s, trimmed of surrounding whitespace.
// Used for chat previews and folder listings.
func FirstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// CleanName normalizes a user-entered name (folder, chat, file) to NFC and
// collapses surrounding whitespace. Validation compares against the cleaned
// value so that a name of plain whitespace counts as empty.
func CleanName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
