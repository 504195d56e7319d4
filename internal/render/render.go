// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns role-tagged message text into terminal output.
//
// Model and tool text is interpreted as markdown; user text is shown
// literally. Rendering never fails: malformed markdown degrades to the
// literal text.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/muse/internal/chat"
)

// DefaultWordWrap is the wrap column when the caller does not know the
// terminal width.
const DefaultWordWrap = 80

// Renderer renders chat messages for the terminal. It carries no
// conversation state; the same input always yields the same output.
type Renderer struct {
	term *glamour.TermRenderer
}

// New creates a renderer wrapping at the given column. If the glamour
// renderer cannot be constructed, markdown falls back to literal text.
func New(wordWrap int) *Renderer {
	if wordWrap <= 0 {
		wordWrap = DefaultWordWrap
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		term = nil
	}
	return &Renderer{term: term}
}

// Render returns the displayable form of a message. Model and tool
// roles get markdown treatment; anything else is returned literally.
func (r *Renderer) Render(role, text string) string {
	switch role {
	case chat.RoleModel, chat.RoleTool:
		return r.Markdown(text)
	default:
		return text
	}
}

// Markdown renders markdown text, degrading to the literal input when
// rendering fails.
func (r *Renderer) Markdown(text string) string {
	if r.term == nil {
		return text
	}
	out, err := r.term.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// ToolIndicator formats the transient "using tool" line shown while a
// tool executes.
func ToolIndicator(name string) string {
	return "Using tool: `" + name + "`..."
}
