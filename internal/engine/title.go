// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"log"
	"strings"

	"github.com/jeranaias/muse/internal/chat"
)

// titleInstruction heads the one-shot summarization prompt.
const titleInstruction = "Based on the following conversation, create a very short, concise title (3-5 words max)."

// generateTitle asks the model for a short label for the conversation
// and stores it. Best-effort: any failure leaves the default title and
// is logged only.
func (e *Engine) generateTitle(ctx context.Context, convID string) {
	history := e.snapshot(convID)
	if history == nil {
		return
	}

	prompt := titleInstruction + "\n\nConversation:\n" + chat.Transcript(history)
	reply, err := e.model.AskPrompt(ctx, prompt)
	if err != nil {
		log.Printf("engine: title generation failed: %v", err)
		return
	}

	title := CleanTitle(reply.Text())
	if title == "" {
		log.Printf("engine: title generation produced empty title")
		return
	}

	e.mu.Lock()
	err = e.store.SetTitle(convID, title)
	e.mu.Unlock()
	if err != nil {
		// The conversation may have been deleted while the call was in
		// flight; nothing to update.
		log.Printf("engine: could not store title: %v", err)
		return
	}
	e.sink.TitleChanged(convID, title)
}

// CleanTitle strips the quote and punctuation decoration models wrap
// around generated titles.
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`“”‘’*")
	s = strings.TrimRight(s, ".!")
	return strings.TrimSpace(s)
}
