// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine drives a chat turn from user input to a final text
// answer.
//
// A turn moves through three states: Idle, AwaitingModel while the
// model endpoint is in flight, and AwaitingTool while a requested tool
// executes. A model reply carrying a function call feeds the tool
// result back into the history and re-enters the model call, bounded by
// a fixed tool-round limit. Any failure is rendered as a chat error
// line and returns the engine to Idle with the conversation history
// intact.
//
// The engine owns the thinking flag: while a turn is in flight, new
// user submissions are rejected, which serializes turns per engine.
package engine
