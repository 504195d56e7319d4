// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
)

// CodeBlock is a fenced code block extracted from message text. Blocks
// are indexed in order of appearance so the surface can offer a
// copy-to-clipboard affordance per block.
type CodeBlock struct {
	Language string
	Code     string
}

// ExtractCodeBlocks returns the fenced code blocks of a markdown text
// in order. An unterminated fence swallows the rest of the text, which
// matches how it would render.
func ExtractCodeBlocks(text string) []CodeBlock {
	var blocks []CodeBlock
	var current []string
	var language string
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				blocks = append(blocks, CodeBlock{
					Language: language,
					Code:     strings.Join(current, "\n"),
				})
				current = nil
				inBlock = false
				continue
			}
			language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			inBlock = true
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	if inBlock && len(current) > 0 {
		blocks = append(blocks, CodeBlock{Language: language, Code: strings.Join(current, "\n")})
	}
	return blocks
}

// Highlight returns the code with ANSI syntax highlighting. Unknown
// languages and highlighting failures return the code unchanged.
func (b CodeBlock) Highlight() string {
	lexer := lexers.Get(b.Language)
	if lexer == nil {
		lexer = lexers.Analyse(b.Code)
	}
	if lexer == nil {
		return b.Code
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return b.Code
	}

	iterator, err := lexer.Tokenise(nil, b.Code)
	if err != nil {
		return b.Code
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return b.Code
	}
	return sb.String()
}

// Copy places the block's code on the system clipboard.
func (b CodeBlock) Copy() error {
	return clipboard.WriteAll(b.Code)
}
