// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// FENCED CODE HIGHLIGHTING
// =============================================================================

// HighlightFences returns text with every ``` fenced block syntax-highlighted
// for a 256-color terminal. Prose is left untouched, so the result still
// reads as the original markdown. Used by the line-oriented commands, which
// print transcripts without a full markdown render.
func HighlightFences(text, style string) string {
	lines := strings.Split(text, "\n")
	var (
		out      []string
		code     []string
		language string
		inBlock  bool
	)

	flush := func() {
		out = append(out, highlightCode(strings.Join(code, "\n"), language, style))
		code = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				flush()
				out = append(out, line)
				inBlock = false
				continue
			}
			language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			out = append(out, line)
			inBlock = true
			continue
		}
		if inBlock {
			code = append(code, line)
			continue
		}
		out = append(out, line)
	}

	// Unclosed fence: still highlight what we have.
	if inBlock && len(code) > 0 {
		flush()
	}
	return strings.Join(out, "\n")
}

// highlightCode applies chroma highlighting. On any failure it returns the
// code unchanged.
func highlightCode(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
