// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage owns conversation state and its persistence.
//
// All conversations live in a single JSON state file that is rewritten
// atomically after every mutation, so reloading always reproduces the
// in-memory state and concurrent writers resolve last-write-wins.
//
// # Key Types
//
//   - Store: the conversation store (CRUD + current-conversation pointer)
//   - Conversation: a titled, ordered sequence of chat messages
//
// # Usage
//
//	store, err := storage.Open(dataDir)
//	id, err := store.CreateConversation()
//	err = store.AppendMessage(id, chat.NewUserMessage("hello"))
//
// # Storage Location
//
// State is stored in <dataDir>/conversations.json, with the last-visit
// timestamp in <dataDir>/last_visit.
package storage
