// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	rendererMu   sync.Mutex
	rendererOnce map[int]*glamour.TermRenderer
)

// markdownRenderer returns a glamour renderer for the given wrap width,
// creating and caching one per width. A nil return means rendering is
// unavailable and callers fall back to plain text.
func markdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}

	rendererMu.Lock()
	defer rendererMu.Unlock()

	if rendererOnce == nil {
		rendererOnce = make(map[int]*glamour.TermRenderer)
	}
	if r, ok := rendererOnce[width]; ok {
		return r
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		rendererOnce[width] = nil
		return nil
	}
	rendererOnce[width] = r
	return r
}

// RenderMarkdown renders assistant message markdown for the terminal.
// Returns the original content unchanged if rendering fails.
func RenderMarkdown(content string, width int) string {
	r := markdownRenderer(width)
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// CODE HIGHLIGHTING
// =============================================================================

// HighlightCode applies chroma syntax highlighting to a code snippet.
// Used for fenced blocks rendered outside the markdown pipeline, e.g.
// in the plain REPL. Returns the input unchanged on any failure.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return code
	}

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return code
	}
	return sb.String()
}
