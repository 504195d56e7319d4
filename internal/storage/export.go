// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/util"
)

// ExportMarkdown renders the conversation as a Markdown document with
// its title, timestamps, and role-labelled messages. Tool calls and
// results are rendered as inline code so the transcript stays readable.
func (c *Conversation) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + c.Title + "\n\n")
	sb.WriteString("Created: " + c.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range c.Messages {
		label := "**User**"
		switch msg.Role {
		case chat.RoleModel:
			label = "**Assistant**"
		case chat.RoleTool:
			label = "**Tool**"
		}
		sb.WriteString(label + ":\n\n")

		part, err := msg.First()
		if err != nil {
			continue
		}
		switch part.Kind() {
		case chat.PartText:
			sb.WriteString(part.Text)
		case chat.PartFunctionCall:
			sb.WriteString(fmt.Sprintf("`%s(%s)`", part.FunctionCall.Name, formatArgs(part.FunctionCall.Args)))
		case chat.PartFunctionResponse:
			sb.WriteString(fmt.Sprintf("`%s` → `%s`", part.FunctionResponse.Name, formatArgs(part.FunctionResponse.Response)))
		}
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON renders the conversation as pretty-printed JSON.
func (c *Conversation) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FormatList renders conversations as a table for terminal display.
func FormatList(convs []*Conversation, currentID string) string {
	if len(convs) == 0 {
		return "No conversations found."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("#", 4) + util.PadRight("Title", 28) + util.PadRight("Created", 18) + util.PadRight("Msgs", 6) + "Preview\n")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for i, c := range convs {
		marker := " "
		if c.ID == currentID {
			marker = "*"
		}
		sb.WriteString(marker + util.PadRight(fmt.Sprintf("%d", i+1), 3))
		sb.WriteString(util.PadRight(util.TruncateWidth(c.Title, 26), 28))
		sb.WriteString(util.PadRight(c.CreatedAt.Format("2006-01-02 15:04"), 18))
		sb.WriteString(util.PadRight(fmt.Sprintf("%d", len(c.Messages)), 6))
		sb.WriteString(util.TruncateWidth(c.Preview(), 28))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	data, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(data)
}
