// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements argument parsing and the non-TUI command
// handlers for muse: one-shot asks, the line-based chat REPL, the
// gateway server, and session management.
package cli
