// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/muse/internal/chat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}

func TestCreateConversation(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateConversation()
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}
	if !strings.HasPrefix(id, "chat_") {
		t.Errorf("id should start with 'chat_', got %q", id)
	}
	if store.CurrentID() != id {
		t.Errorf("new conversation should be current")
	}

	conv := store.Current()
	if conv == nil {
		t.Fatal("Current returned nil")
	}
	if conv.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", conv.Title, DefaultTitle)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != chat.RoleModel {
		t.Errorf("expected a single greeting message, got %v", conv.Messages)
	}
}

func TestCreateConversation_UniqueIDsSameTick(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := store.CreateConversation()
		if err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestAppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	id, _ := store.CreateConversation()
	appended := []chat.Message{
		chat.NewUserMessage("what's playing?"),
		{Role: chat.RoleModel, Parts: []chat.Part{chat.CallPart("get_now_playing", nil)}},
		chat.NewToolMessage("get_now_playing", map[string]any{"artist": "A", "song": "B", "album": "C"}),
		chat.NewModelMessage("You're listening to B by A."),
	}
	for _, m := range appended {
		if err := store.AppendMessage(id, m); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	// Round-trip law: a reloaded store reproduces message order exactly.
	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	conv, ok := reloaded.Get(id)
	if !ok {
		t.Fatal("conversation missing after reload")
	}
	if len(conv.Messages) != len(appended)+1 {
		t.Fatalf("message count = %d, want %d", len(conv.Messages), len(appended)+1)
	}
	for i, m := range appended {
		got := conv.Messages[i+1]
		if got.Role != m.Role {
			t.Errorf("message %d role = %q, want %q", i+1, got.Role, m.Role)
		}
		gp, mp := got.Parts[0], m.Parts[0]
		if gp.Kind() != mp.Kind() {
			t.Errorf("message %d part kind = %v, want %v", i+1, gp.Kind(), mp.Kind())
		}
	}
	if reloaded.CurrentID() != id {
		t.Errorf("current pointer lost on reload")
	}
}

func TestAppendMessage_UnknownID(t *testing.T) {
	store := newTestStore(t)
	err := store.AppendMessage("missing", chat.NewUserMessage("hi"))
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestLoadConversation_SelectionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	older, _ := store.CreateConversation()
	store.CreateConversation()

	ok, err := store.LoadConversation(older)
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}
	if !ok {
		t.Fatal("loading a known id should report true")
	}

	reloaded, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reloaded.CurrentID(); got != older {
		t.Errorf("current after reopen = %q, want %q", got, older)
	}
}

func TestLoadConversation_UnknownIsNoOp(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.CreateConversation()

	ok, err := store.LoadConversation("missing")
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}
	if ok {
		t.Error("loading an unknown id should report false")
	}
	if store.CurrentID() != id {
		t.Error("current pointer must be untouched by a failed load")
	}
}

func TestClearConversation(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.CreateConversation()
	store.AppendMessage(id, chat.NewUserMessage("hello"))
	store.SetTitle(id, "Greetings")

	if err := store.ClearConversation(id); err != nil {
		t.Fatalf("ClearConversation failed: %v", err)
	}

	conv, _ := store.Get(id)
	if len(conv.Messages) != 1 {
		t.Errorf("messages = %d, want 1 greeting", len(conv.Messages))
	}
	if conv.Messages[0].Text() != GreetingCleared {
		t.Errorf("greeting = %q", conv.Messages[0].Text())
	}
	if conv.Title != "Greetings" {
		t.Error("clear must keep the title")
	}
}

func TestDeleteConversation_ReselectsMostRecent(t *testing.T) {
	store := newTestStore(t)
	first, _ := store.CreateConversation()
	time.Sleep(2 * time.Millisecond)
	second, _ := store.CreateConversation()
	time.Sleep(2 * time.Millisecond)
	third, _ := store.CreateConversation()

	if err := store.DeleteConversation(third); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if store.CurrentID() != second {
		t.Errorf("current = %q, want most recently created %q", store.CurrentID(), second)
	}

	// Deleting a non-current conversation leaves the pointer alone.
	if err := store.DeleteConversation(first); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if store.CurrentID() != second {
		t.Errorf("current = %q, want %q", store.CurrentID(), second)
	}
}

func TestDeleteConversation_LastOneUnsetsCurrent(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.CreateConversation()

	if err := store.DeleteConversation(id); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if store.CurrentID() != "" {
		t.Errorf("current = %q, want unset", store.CurrentID())
	}
	if store.Current() != nil {
		t.Error("Current should be nil with no conversations")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestList_CreationOrderNewestFirst(t *testing.T) {
	store := newTestStore(t)
	a, _ := store.CreateConversation()
	time.Sleep(2 * time.Millisecond)
	b, _ := store.CreateConversation()
	time.Sleep(2 * time.Millisecond)
	c, _ := store.CreateConversation()

	// Accessing an older conversation must not change list order.
	if _, err := store.LoadConversation(a); err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}

	list := store.List()
	if len(list) != 3 {
		t.Fatalf("List len = %d, want 3", len(list))
	}
	want := []string{c, b, a}
	for i, conv := range list {
		if conv.ID != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, conv.ID, want[i])
		}
	}
}

func TestOpen_CorruptStateFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "conversations.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestOpen_StaleCurrentPointer(t *testing.T) {
	dir := t.TempDir()
	// A current id that keys no entry must be dropped on load.
	blob := `{"conversations":{},"current_conversation_id":"chat_123_abc"}`
	if err := os.WriteFile(filepath.Join(dir, "conversations.json"), []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.CurrentID() != "" {
		t.Errorf("stale current pointer survived: %q", store.CurrentID())
	}
}

func TestLastVisit(t *testing.T) {
	store := newTestStore(t)

	if !store.LastVisit().IsZero() {
		t.Error("expected zero time before first visit")
	}
	if err := store.TouchVisit(); err != nil {
		t.Fatalf("TouchVisit failed: %v", err)
	}
	visit := store.LastVisit()
	if visit.IsZero() {
		t.Fatal("expected recorded visit time")
	}
	if time.Since(visit) > time.Minute {
		t.Errorf("visit time too old: %v", visit)
	}
}

func TestConversationPreview(t *testing.T) {
	store := newTestStore(t)
	id, _ := store.CreateConversation()
	conv, _ := store.Get(id)

	if conv.Preview() != "" {
		t.Errorf("preview of greeting-only conversation = %q", conv.Preview())
	}

	store.AppendMessage(id, chat.NewUserMessage("line one\nline two"))
	if got := conv.Preview(); got != "line one line two" {
		t.Errorf("Preview = %q", got)
	}
}
