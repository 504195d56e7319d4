// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the muse TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// COLORS
// =============================================================================

// Purple - Primary accent, assistant messages
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, user highlights, commands
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, tool results
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, thinking indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextMuted - Hints, timestamps, footer text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// STYLES
// =============================================================================

// Header is the conversation title bar.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(Cyan).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Overlay).
	Padding(0, 1)

// Footer is the help line under the input.
var Footer = lipgloss.NewStyle().
	Foreground(TextMuted).
	Padding(0, 1)

// UserLabel prefixes user messages in the transcript.
var UserLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(Cyan)

// AssistantLabel prefixes model messages in the transcript.
var AssistantLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(Purple)

// ToolNote marks a tool invocation line.
var ToolNote = lipgloss.NewStyle().
	Foreground(Emerald).
	Italic(true)

// ErrorText marks an error line.
var ErrorText = lipgloss.NewStyle().
	Foreground(Rose)

// Thinking marks the in-flight indicator.
var Thinking = lipgloss.NewStyle().
	Foreground(Amber)

// InputBox frames the textarea.
var InputBox = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)
