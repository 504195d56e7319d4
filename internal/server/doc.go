// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the muse gateway: a small HTTP service that
// keeps API keys off the client and proxies the chat backends.
//
// Endpoints:
//   - POST /api/ask         - Forward chat history to the Gemini model
//   - POST /api/tools       - Execute a tool the model requested
//   - GET  /api/now-playing - Currently playing track from Last.fm
//   - GET  /api/time        - Current time in India
//   - GET  /health          - Health check
//
// The gateway is stateless. Conversation state lives entirely in the
// client; each /api/ask call carries the full history.
package server
