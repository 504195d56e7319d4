// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools implements the named actions the model can request:
// registration, lookup, and execution with a per-tool timeout.
package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/muse/internal/gemini"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 15 * time.Second

// Invocation is one requested tool execution.
type Invocation struct {
	Name string
	Args map[string]any

	// ClientIP is the caller's address, for tools that report it.
	ClientIP string
}

// RunFunc executes a tool and returns its structured result.
type RunFunc func(ctx context.Context, inv Invocation) (map[string]any, error)

// Tool is a named action the model can request.
type Tool struct {
	Name        string
	Description string

	// Advertised tools appear in the function declarations sent to the
	// model. Unadvertised tools still execute when requested, so older
	// clients keep working.
	Advertised bool

	Timeout time.Duration
	Run     RunFunc
}

// Registry holds the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Declarations returns the function declarations for advertised tools,
// in registration order.
func (r *Registry) Declarations() []gemini.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var decls []gemini.ToolDeclaration
	for _, name := range r.order {
		t := r.tools[name]
		if t.Advertised {
			decls = append(decls, gemini.ToolDeclaration{Name: t.Name, Description: t.Description})
		}
	}
	return decls
}

// Execute runs the named tool with its timeout applied. An unknown
// tool or a failed execution returns an error; translating that into
// the wire's soft-failure shape is the caller's concern.
func (r *Registry) Execute(ctx context.Context, inv Invocation) (map[string]any, error) {
	tool, ok := r.Get(inv.Name)
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", inv.Name)
	}

	timeout := tool.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return tool.Run(ctx, inv)
}
