// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestWelcomeLineFirstVisit(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	got := welcomeLine(time.Time{}, now)
	assert.Contains(t, got, "Good morning!")
	assert.Contains(t, got, "Welcome to muse")
}

func TestWelcomeLineReturning(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	got := welcomeLine(now.Add(-2*time.Hour), now)
	assert.Contains(t, got, "Good afternoon!")
	assert.Contains(t, got, "Welcome back")
}

func TestWelcomeLineLongAbsence(t *testing.T) {
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	got := welcomeLine(now.Add(-60*24*time.Hour), now)
	assert.Contains(t, got, "Good evening!")
	assert.Contains(t, got, "been a while")
}

func TestWelcomeLineLateNight(t *testing.T) {
	now := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	got := welcomeLine(time.Time{}, now)
	assert.Contains(t, got, "Up late?")
}

// capturingSender records messages sent through the sink.
type capturingSender struct {
	msgs []tea.Msg
}

func (c *capturingSender) Send(msg tea.Msg) {
	c.msgs = append(c.msgs, msg)
}

func TestSinkForwardsEvents(t *testing.T) {
	sender := &capturingSender{}
	sink := NewSink()
	sink.SetProgram(sender)

	sink.MessageShown("model", "hello")
	sink.ToolUseShown("get_current_time")
	sink.ErrorShown("Error: boom")
	sink.ThinkingChanged(true)
	sink.TitleChanged("chat_1", "Greetings")

	assert.Len(t, sender.msgs, 5)
	assert.Equal(t, MessageShownMsg{Role: "model", Text: "hello"}, sender.msgs[0])
	assert.Equal(t, ToolUseMsg{Name: "get_current_time"}, sender.msgs[1])
	assert.Equal(t, ErrorShownMsg{Text: "Error: boom"}, sender.msgs[2])
	assert.Equal(t, ThinkingMsg{Thinking: true}, sender.msgs[3])
	assert.Equal(t, TitleChangedMsg{ConversationID: "chat_1", Title: "Greetings"}, sender.msgs[4])
}

func TestSinkWithoutProgramIsSafe(t *testing.T) {
	sink := NewSink()
	assert.NotPanics(t, func() {
		sink.MessageShown("model", "dropped")
		sink.ThinkingChanged(false)
	})
}
