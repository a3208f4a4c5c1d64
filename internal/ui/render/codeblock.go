// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// =============================================================================
// FENCED BLOCK PARSER
// =============================================================================

// Segment is a run of prose or the body of one fenced code block.
type Segment struct {
	Text     string
	Code     bool
	Language string
}

// SplitFences splits markdown text into prose and ``` fenced code
// segments. An unclosed fence runs to the end of the text, which is what a
// response that is still streaming looks like.
func SplitFences(text string) []Segment {
	var (
		segs     []Segment
		buf      []string
		inCode   bool
		language string
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		segs = append(segs, Segment{Text: strings.Join(buf, "\n"), Code: inCode, Language: language})
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			flush()
			if inCode {
				inCode, language = false, ""
			} else {
				inCode = true
				language = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return segs
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// HighlightCode applies terminal syntax highlighting to code. The language
// is guessed when empty or unknown; on any failure the code comes back as
// it was.
func HighlightCode(code, language string) string {
	if language == "" {
		language = DetectLanguage(code)
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DetectLanguage guesses the programming language of code.
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
