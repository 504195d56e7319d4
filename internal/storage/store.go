// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/util"
)

// DefaultTitle is the title of a conversation before one is generated.
const DefaultTitle = "New Chat"

// Seed greetings. A new conversation opens with GreetingNew; Clear keeps
// the entry but resets its messages to GreetingCleared.
const (
	GreetingNew     = "Hello! I am the resident AI assistant. How can I help you today?"
	GreetingCleared = "Chat cleared. How can I help you now?"
)

const (
	stateFileName     = "conversations.json"
	lastVisitFileName = "last_visit"
)

// ErrConversationNotFound is returned for operations on an unknown id.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &StoreError{Message: "conversation not found"}

// StoreError represents a conversation-store error.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// Conversation is a titled, ordered sequence of messages with a
// persistent identity.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Messages  []chat.Message `json:"messages"`
}

// Preview returns the first user message, truncated for list display.
func (c *Conversation) Preview() string {
	for _, m := range c.Messages {
		if m.Role == chat.RoleUser && m.Text() != "" {
			return util.TruncateRunes(util.OneLine(m.Text()), 80)
		}
	}
	return ""
}

// UserMessageCount returns the number of user turns in the conversation.
func (c *Conversation) UserMessageCount() int {
	return chat.CountRole(c.Messages, chat.RoleUser)
}

// state is the persisted representation: the full conversation mapping
// plus the current-conversation pointer, serialized as one record.
type state struct {
	Conversations map[string]*Conversation `json:"conversations"`
	CurrentID     string                   `json:"current_conversation_id,omitempty"`
}

// Store owns the in-memory conversation mapping and persists the whole
// of it synchronously after every mutation.
//
// Store is not safe for concurrent use; callers serialize access (the
// engine's thinking flag does this for chat turns).
type Store struct {
	dataDir string
	convs   map[string]*Conversation
	current string
}

// Open loads the store from dataDir, creating the directory if needed.
// A missing state file yields an empty store; a corrupt one is an error
// so saved history is never silently discarded.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{
		dataDir: dataDir,
		convs:   make(map[string]*Conversation),
	}

	data, err := os.ReadFile(s.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if st.Conversations != nil {
		s.convs = st.Conversations
	}
	// The current pointer must key an existing entry.
	if _, ok := s.convs[st.CurrentID]; ok {
		s.current = st.CurrentID
	}
	return s, nil
}

// CreateConversation inserts a fresh greeting-seeded conversation, makes
// it current, persists, and returns its id.
func (s *Store) CreateConversation() (string, error) {
	id := newConversationID(s.convs)
	now := time.Now()
	s.convs[id] = &Conversation{
		ID:        id,
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []chat.Message{chat.NewModelMessage(GreetingNew)},
	}
	s.current = id
	if err := s.persist(); err != nil {
		return "", err
	}
	return id, nil
}

// LoadConversation sets the current conversation and persists the
// selection. Unknown ids are a silent no-op and return false.
func (s *Store) LoadConversation(id string) (bool, error) {
	if _, ok := s.convs[id]; !ok {
		return false, nil
	}
	s.current = id
	return true, s.persist()
}

// ClearConversation resets the messages of a conversation to a single
// greeting, keeping the entry and its title.
func (s *Store) ClearConversation(id string) error {
	conv, ok := s.convs[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Messages = []chat.Message{chat.NewModelMessage(GreetingCleared)}
	conv.UpdatedAt = time.Now()
	return s.persist()
}

// DeleteConversation removes a conversation. When the current one is
// deleted, the most recently created remaining conversation becomes
// current, or no conversation is selected if none remain.
func (s *Store) DeleteConversation(id string) error {
	if _, ok := s.convs[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.convs, id)
	if s.current == id {
		s.current = ""
		if remaining := s.List(); len(remaining) > 0 {
			s.current = remaining[0].ID
		}
	}
	return s.persist()
}

// AppendMessage appends to the tail of a conversation's messages. This
// is the only mutation path during a chat turn.
func (s *Store) AppendMessage(id string, msg chat.Message) error {
	conv, ok := s.convs[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()
	return s.persist()
}

// SetTitle replaces a conversation's title.
func (s *Store) SetTitle(id, title string) error {
	conv, ok := s.convs[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Title = title
	conv.UpdatedAt = time.Now()
	return s.persist()
}

// Get returns a conversation by id.
func (s *Store) Get(id string) (*Conversation, bool) {
	conv, ok := s.convs[id]
	return conv, ok
}

// Current returns the current conversation, or nil when none is
// selected.
func (s *Store) Current() *Conversation {
	if s.current == "" {
		return nil
	}
	return s.convs[s.current]
}

// CurrentID returns the current conversation id, or "".
func (s *Store) CurrentID() string {
	return s.current
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	return len(s.convs)
}

// List returns all conversations in creation order, newest first.
// Display order is creation order, not access order.
func (s *Store) List() []*Conversation {
	out := make([]*Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// LastVisit returns the recorded previous visit time; zero when this is
// the first visit.
func (s *Store) LastVisit() time.Time {
	data, err := os.ReadFile(filepath.Join(s.dataDir, lastVisitFileName))
	if err != nil {
		return time.Time{}
	}
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

// TouchVisit records the current time as the latest visit.
func (s *Store) TouchVisit() error {
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return util.AtomicWriteFile(filepath.Join(s.dataDir, lastVisitFileName), []byte(stamp), 0644)
}

// persist writes the entire store to disk before returning. A crash
// between operations loses at most the in-flight turn.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(state{
		Conversations: s.convs,
		CurrentID:     s.current,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return util.AtomicWriteFile(s.statePath(), data, 0644)
}

func (s *Store) statePath() string {
	return filepath.Join(s.dataDir, stateFileName)
}

// newConversationID derives an id from the creation time plus a random
// salt, so two conversations created in the same millisecond still get
// distinct ids.
func newConversationID(existing map[string]*Conversation) string {
	for {
		salt := make([]byte, 3)
		rand.Read(salt)
		id := fmt.Sprintf("chat_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(salt))
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}
