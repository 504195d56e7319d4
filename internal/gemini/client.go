// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini is the upstream client the gateway uses to reach the
// Google Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jeranaias/muse/internal/chat"
)

// DefaultBaseURL is the Gemini API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is the generation model the gateway targets.
const DefaultModel = "gemini-1.5-flash-latest"

// DefaultTimeout bounds one generateContent call.
const DefaultTimeout = 45 * time.Second

// ErrNotConfigured indicates a missing API key.
var ErrNotConfigured = errors.New("Gemini API key not configured")

// ErrNoCandidates indicates a reply with no usable candidate content.
var ErrNoCandidates = errors.New("no candidates in Gemini reply")

// UpstreamError is a non-2xx reply from the Gemini API.
type UpstreamError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Gemini API returned HTTP %d: %s", e.Status, e.Body)
}

// ToolDeclaration describes one callable function to the model.
type ToolDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// generatePayload is the generateContent request body.
type generatePayload struct {
	SystemInstruction *systemInstruction `json:"systemInstruction,omitempty"`
	Contents          []chat.Message     `json:"contents"`
	Tools             []toolSet          `json:"tools,omitempty"`
}

type systemInstruction struct {
	Parts []chat.Part `json:"parts"`
}

type toolSet struct {
	FunctionDeclarations []ToolDeclaration `json:"functionDeclarations"`
}

// generateResponse is the slice of the reply the gateway reads.
type generateResponse struct {
	Candidates []struct {
		Content chat.Message `json:"content"`
	} `json:"candidates"`
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	persona    string
	tools      []ToolDeclaration
	httpClient *http.Client
}

// NewClient creates a Gemini client with the assistant persona and the
// tool declarations the gateway advertises.
func NewClient(apiKey, persona string, tools []ToolDeclaration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		persona: persona,
		tools:   tools,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithBaseURL points the client at a different API root, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// WithModel overrides the generation model.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Generate sends the conversation history to the model and returns the
// first candidate's content. ErrNoCandidates means the model produced
// nothing usable; the caller decides how to phrase that to the user.
func (c *Client) Generate(ctx context.Context, history []chat.Message) (chat.Message, error) {
	var zero chat.Message
	if !c.IsConfigured() {
		return zero, ErrNotConfigured
	}

	payload := generatePayload{
		Contents: history,
	}
	if c.persona != "" {
		payload.SystemInstruction = &systemInstruction{Parts: []chat.Part{chat.TextPart(c.persona)}}
	}
	if len(c.tools) > 0 {
		payload.Tools = []toolSet{{FunctionDeclarations: c.tools}}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("Gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return zero, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return zero, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return zero, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return zero, ErrNoCandidates
	}
	return parsed.Candidates[0].Content, nil
}
