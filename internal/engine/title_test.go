// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/storage"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Music Chat"`, "Music Chat"},
		{"'Quoted Title'", "Quoted Title"},
		{"  Plain Title.  ", "Plain Title"},
		{"**Bold Title**", "Bold Title"},
		{"“Smart Quotes”", "Smart Quotes"},
		{"Ends With Bang!", "Ends With Bang"},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Title generation runs exactly once: only the first user turn in a
// conversation triggers it.
func TestTitleGeneratedExactlyOnce(t *testing.T) {
	model := &fakeModel{
		replies: []chat.Message{
			chat.NewModelMessage("first reply"),
			chat.NewModelMessage("second reply"),
			chat.NewModelMessage("third reply"),
		},
		promptReply: chat.NewModelMessage("The Title"),
	}
	eng, store, sink := newTestEngine(t, model, &fakeTools{})
	store.CreateConversation()

	for _, input := range []string{"one", "two", "three"} {
		if err := eng.ProcessUserMessage(context.Background(), input); err != nil {
			t.Fatalf("turn %q failed: %v", input, err)
		}
		eng.Wait()
	}

	if got := model.promptCount(); got != 1 {
		t.Errorf("title generation calls = %d, want 1", got)
	}
	if len(sink.titles) != 1 || sink.titles[0] != "The Title" {
		t.Errorf("titles shown = %v", sink.titles)
	}
}

func TestTitleFailure_KeepsDefaultTitle(t *testing.T) {
	model := &fakeModel{
		replies:   []chat.Message{chat.NewModelMessage("hi")},
		promptErr: errors.New("summarizer unavailable"),
	}
	eng, store, sink := newTestEngine(t, model, &fakeTools{})
	id, _ := store.CreateConversation()

	if err := eng.ProcessUserMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	eng.Wait()

	conv, _ := store.Get(id)
	if conv.Title != storage.DefaultTitle {
		t.Errorf("title = %q, want untouched default", conv.Title)
	}
	// Best-effort: the failure never reaches the user.
	if sink.errorCount() != 0 {
		t.Errorf("title failure surfaced to user: %v", sink.errors)
	}
}

func TestTitleFailure_EmptyAfterCleaning(t *testing.T) {
	model := &fakeModel{
		replies:     []chat.Message{chat.NewModelMessage("hi")},
		promptReply: chat.NewModelMessage(`"!"`),
	}
	eng, store, _ := newTestEngine(t, model, &fakeTools{})
	id, _ := store.CreateConversation()

	if err := eng.ProcessUserMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("turn failed: %v", err)
	}
	eng.Wait()

	conv, _ := store.Get(id)
	if conv.Title != storage.DefaultTitle {
		t.Errorf("title = %q, want default kept for empty generation", conv.Title)
	}
}
