// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Failure taxonomy for gateway calls. Every failure an engine turn can
// see maps onto exactly one of these; all are recovered at the engine
// boundary and surfaced as a chat error line.
var (
	// ErrNetwork indicates the request never completed.
	ErrNetwork = errors.New("network failure")

	// ErrFormat indicates a 2xx response missing the expected fields.
	ErrFormat = errors.New("malformed response")
)

// ServiceError is a non-2xx reply carrying the service's message body.
type ServiceError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("service error (HTTP %d)", e.Status)
}

// ToolError is a failed tool execution: a non-2xx from the tool
// endpoint, or an error field inside a 200 reply. Both surface
// identically to the user.
type ToolError struct {
	Tool    string
	Message string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}
