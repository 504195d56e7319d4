// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the full-screen Bubble Tea chat interface.
//
// The interface is a single model: a viewport holding the rendered
// transcript, a textarea for input, and a spinner shown while a reply
// is in flight. Engine events arrive as Bubble Tea messages through
// the Sink bridge, so all mutation happens on the program goroutine.
package ui
