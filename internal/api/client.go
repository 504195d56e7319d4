// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client for the muse gateway: the model endpoint
// that fronts Gemini and the tool-execution endpoint.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/muse/internal/chat"
)

const (
	// DefaultBaseURL points at a locally running gateway (muse serve).
	DefaultBaseURL = "http://localhost:8787"

	// DefaultTimeout is the per-request timeout. The engine itself
	// enforces no timeouts; transport behavior is the only bound.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies read into memory.
	MaxResponseSize = 4 * 1024 * 1024

	askPath   = "/api/ask"
	toolsPath = "/api/tools"
)

// Shared HTTP client with connection pooling for all gateway requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// askRequest is the model endpoint request body. Exactly one of History
// or Prompt is set: History for conversation turns, Prompt for one-shot
// calls such as title generation.
type askRequest struct {
	History []chat.Message `json:"history,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
}

// askResponse is the model endpoint success body.
type askResponse struct {
	Response *chat.Message `json:"response"`
}

// errorResponse is the non-2xx body shape for the model endpoint.
type errorResponse struct {
	Message string `json:"message"`
}

// toolRequest is the tool endpoint request body.
type toolRequest struct {
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args,omitempty"`
}

// Client talks to the muse gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a gateway client for the given base URL. An empty
// URL falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    trimSlash(baseURL),
		httpClient: sharedHTTPClient,
		userAgent:  "muse/0.1.0",
	}
}

// WithHTTPClient sets a custom HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the request timeout on a dedicated HTTP client.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *sharedHTTPClient
	clone.Timeout = timeout
	c.httpClient = &clone
	return c
}

// Ask sends the full conversation history to the model endpoint and
// returns the model's reply message. The reply is validated against the
// wire contract; an unusable shape is an ErrFormat.
func (c *Client) Ask(ctx context.Context, history []chat.Message) (chat.Message, error) {
	return c.ask(ctx, askRequest{History: history})
}

// AskPrompt sends a one-shot, historyless prompt to the model endpoint.
func (c *Client) AskPrompt(ctx context.Context, prompt string) (chat.Message, error) {
	return c.ask(ctx, askRequest{Prompt: prompt})
}

func (c *Client) ask(ctx context.Context, reqBody askRequest) (chat.Message, error) {
	var zero chat.Message

	status, body, err := c.post(ctx, c.baseURL+askPath, reqBody)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if status != http.StatusOK {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Message != "" {
			return zero, &ServiceError{Status: status, Message: er.Message}
		}
		return zero, &ServiceError{Status: status, Message: string(body)}
	}

	var ar askResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if ar.Response == nil {
		return zero, fmt.Errorf("%w: missing response field", ErrFormat)
	}
	if err := ar.Response.Validate(); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return *ar.Response, nil
}

// ExecuteTool runs a named tool through the tool endpoint and returns
// its structured result. A non-2xx status or an "error" field in a 200
// body both produce a ToolError.
func (c *Client) ExecuteTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	status, body, err := c.post(ctx, c.baseURL+toolsPath, toolRequest{ToolName: name, Args: args})
	if err != nil {
		return nil, &ToolError{Tool: name, Message: err.Error()}
	}
	if status != http.StatusOK {
		return nil, &ToolError{Tool: name, Message: fmt.Sprintf("HTTP %d", status)}
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ToolError{Tool: name, Message: "unparseable result"}
	}
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, &ToolError{Tool: name, Message: msg}
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	log.Printf("api: POST %s -> %d (%v)", req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	body, err := readBody(resp)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// readBody reads the response with a size cap so an oversized body
// cannot exhaust memory.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded %d bytes", MaxResponseSize)
	}
	return body, nil
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
