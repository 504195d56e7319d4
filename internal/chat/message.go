// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat defines the wire-level message model shared by the engine,
// the store, and the gateway.
package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Message roles. The assistant speaks as "model" and tool results are
// carried back under "tool", matching the Gemini content format.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// ErrEmptyMessage indicates a message with no parts.
var ErrEmptyMessage = errors.New("message has no parts")

// ErrUnknownPart indicates a part that is neither text, a function call,
// nor a function response.
var ErrUnknownPart = errors.New("unrecognized part shape")

// FunctionCall is a model-issued request to execute a named tool.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse wraps a tool result fed back into the conversation.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// PartKind identifies which arm of the Part union is populated.
type PartKind int

const (
	PartUnknown PartKind = iota
	PartText
	PartFunctionCall
	PartFunctionResponse
)

// Part is one piece of a message. Exactly one field is set; anything
// else is a format error surfaced through Kind.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Kind reports which arm of the union is populated. A part with more
// than one arm set, or none, is PartUnknown.
func (p Part) Kind() PartKind {
	set := 0
	kind := PartUnknown
	if p.Text != "" {
		set++
		kind = PartText
	}
	if p.FunctionCall != nil {
		set++
		kind = PartFunctionCall
	}
	if p.FunctionResponse != nil {
		set++
		kind = PartFunctionResponse
	}
	if set != 1 {
		return PartUnknown
	}
	return kind
}

// TextPart creates a plain text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// CallPart creates a function call part.
func CallPart(name string, args map[string]any) Part {
	return Part{FunctionCall: &FunctionCall{Name: name, Args: args}}
}

// ResponsePart creates a function response part.
func ResponsePart(name string, response map[string]any) Part {
	return Part{FunctionResponse: &FunctionResponse{Name: name, Response: response}}
}

// Message is a single conversation turn.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserMessage creates a user turn with a single text part.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

// NewModelMessage creates a model turn with a single text part.
func NewModelMessage(text string) Message {
	return Message{Role: RoleModel, Parts: []Part{TextPart(text)}}
}

// NewToolMessage creates a tool turn carrying a function response.
func NewToolMessage(name string, response map[string]any) Message {
	return Message{Role: RoleTool, Parts: []Part{ResponsePart(name, response)}}
}

// First returns the leading part. Multi-part messages are valid on the
// wire but only the first part drives the engine.
func (m Message) First() (Part, error) {
	if len(m.Parts) == 0 {
		return Part{}, ErrEmptyMessage
	}
	return m.Parts[0], nil
}

// Text returns the text of the first part, or "" for non-text messages.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return ""
	}
	return m.Parts[0].Text
}

// Validate checks the message against the wire contract: a known role
// and at least one part with a recognizable shape.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleModel, RoleTool:
	default:
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return ErrEmptyMessage
	}
	for i, p := range m.Parts {
		if p.Kind() == PartUnknown {
			return fmt.Errorf("part %d: %w", i, ErrUnknownPart)
		}
	}
	return nil
}

// Transcript flattens messages into "role: text" lines. Used to build
// the title-generation prompt; call and response parts are skipped.
func Transcript(messages []Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if len(m.Parts) == 0 || m.Parts[0].Kind() != PartText {
			continue
		}
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Parts[0].Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// CountRole returns how many messages carry the given role.
func CountRole(messages []Message, role string) int {
	n := 0
	for _, m := range messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
