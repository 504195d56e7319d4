// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import tea "github.com/charmbracelet/bubbletea"

// =============================================================================
// ENGINE EVENT MESSAGES
// =============================================================================

// MessageShownMsg carries a user or model message into the transcript.
type MessageShownMsg struct {
	Role string
	Text string
}

// ToolUseMsg notes a tool the model is invoking.
type ToolUseMsg struct {
	Name string
}

// ErrorShownMsg carries an error line into the transcript.
type ErrorShownMsg struct {
	Text string
}

// ThinkingMsg reports the thinking flag flipping.
type ThinkingMsg struct {
	Thinking bool
}

// TitleChangedMsg reports a conversation receiving a generated title.
type TitleChangedMsg struct {
	ConversationID string
	Title          string
}

// turnDoneMsg signals that ProcessUserMessage returned.
type turnDoneMsg struct {
	err error
}

// =============================================================================
// SINK BRIDGE
// =============================================================================

// sender is the slice of *tea.Program the sink needs.
type sender interface {
	Send(tea.Msg)
}

// Sink forwards engine events onto the Bubble Tea program. It is safe
// to call from the engine's goroutines; Send is serialized by the
// program itself.
type Sink struct {
	program sender
}

// NewSink creates a Sink. Attach the program with SetProgram before
// the engine runs.
func NewSink() *Sink {
	return &Sink{}
}

// SetProgram attaches the running program.
func (s *Sink) SetProgram(p sender) {
	s.program = p
}

func (s *Sink) send(msg tea.Msg) {
	if s.program != nil {
		s.program.Send(msg)
	}
}

// MessageShown implements engine.Sink.
func (s *Sink) MessageShown(role, text string) {
	s.send(MessageShownMsg{Role: role, Text: text})
}

// ToolUseShown implements engine.Sink.
func (s *Sink) ToolUseShown(name string) {
	s.send(ToolUseMsg{Name: name})
}

// ErrorShown implements engine.Sink.
func (s *Sink) ErrorShown(text string) {
	s.send(ErrorShownMsg{Text: text})
}

// ThinkingChanged implements engine.Sink.
func (s *Sink) ThinkingChanged(thinking bool) {
	s.send(ThinkingMsg{Thinking: thinking})
}

// TitleChanged implements engine.Sink.
func (s *Sink) TitleChanged(conversationID, title string) {
	s.send(TitleChangedMsg{ConversationID: conversationID, Title: title})
}
