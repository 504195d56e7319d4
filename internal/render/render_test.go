// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/jeranaias/muse/internal/chat"
)

func TestRender_UserTextIsLiteral(t *testing.T) {
	r := New(80)
	in := "**not bold** `not code`"
	if got := r.Render(chat.RoleUser, in); got != in {
		t.Errorf("user text must be literal, got %q", got)
	}
}

func TestRender_ModelTextIsMarkdown(t *testing.T) {
	r := New(80)
	got := r.Render(chat.RoleModel, "# Heading\n\nsome text")
	if got == "" {
		t.Fatal("expected rendered output")
	}
	// Markdown syntax should not leak through verbatim.
	if strings.Contains(got, "# Heading") && !strings.Contains(got, "Heading") {
		t.Errorf("markdown appears unrendered: %q", got)
	}
}

func TestMarkdown_DegradesWithoutRenderer(t *testing.T) {
	r := &Renderer{term: nil}
	in := "# malformed ``` [link(broken"
	if got := r.Markdown(in); got != in {
		t.Errorf("fallback must return literal text, got %q", got)
	}
}

func TestExtractCodeBlocks(t *testing.T) {
	text := "intro\n```go\nfmt.Println(\"hi\")\n```\nmiddle\n```\nplain\n```\n"
	blocks := ExtractCodeBlocks(text)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Language != "go" || !strings.Contains(blocks[0].Code, "Println") {
		t.Errorf("first block = %+v", blocks[0])
	}
	if blocks[1].Language != "" || blocks[1].Code != "plain" {
		t.Errorf("second block = %+v", blocks[1])
	}
}

func TestExtractCodeBlocks_Unterminated(t *testing.T) {
	blocks := ExtractCodeBlocks("```python\nx = 1")
	if len(blocks) != 1 || blocks[0].Code != "x = 1" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestExtractCodeBlocks_None(t *testing.T) {
	if blocks := ExtractCodeBlocks("no fences here"); len(blocks) != 0 {
		t.Errorf("blocks = %+v, want none", blocks)
	}
}

func TestHighlight_UnknownLanguageIsUnchanged(t *testing.T) {
	b := CodeBlock{Language: "definitely-not-a-language", Code: "????"}
	if got := b.Highlight(); got != "????" && !strings.Contains(got, "????") {
		t.Errorf("Highlight = %q", got)
	}
}

func TestToolIndicator(t *testing.T) {
	got := ToolIndicator("get_now_playing")
	if !strings.Contains(got, "get_now_playing") {
		t.Errorf("ToolIndicator = %q", got)
	}
}
