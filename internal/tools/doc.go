// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools implements the gateway-side tool executor.
//
// The model requests a tool by name during a chat turn; the gateway
// dispatches it through a Registry and feeds the structured result
// back into the conversation. Only advertised tools are declared to
// the model, but unadvertised ones still execute when named, which
// keeps older clients working.
package tools
