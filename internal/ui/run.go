// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/muse/internal/engine"
	"github.com/jeranaias/muse/internal/storage"
)

// Run wires the engine to a fresh program and blocks until it exits.
// modelFn builds the engine once the sink exists, so the engine's
// events can reach the program.
func Run(store *storage.Store, buildEngine func(sink *Sink) *engine.Engine) error {
	sink := NewSink()
	eng := buildEngine(sink)

	m := NewModel(store, eng)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	sink.SetProgram(p)

	store.TouchVisit()
	_, err := p.Run()

	// Drain title generation before the process exits.
	eng.Wait()
	return err
}
