// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/engine"
	"github.com/jeranaias/muse/internal/render"
	"github.com/jeranaias/muse/internal/storage"
	"github.com/jeranaias/muse/internal/ui/styles"
)

// inputHeight is the number of textarea rows.
const inputHeight = 3

// chromeHeight is header + input frame + footer.
const chromeHeight = inputHeight + 5

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	store  *storage.Store
	engine *engine.Engine

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *render.Renderer

	// transcript holds the rendered lines shown in the viewport.
	transcript []string

	width    int
	height   int
	thinking bool
	ready    bool
	quitting bool
}

// NewModel builds the chat model over an opened store and engine.
func NewModel(store *storage.Store, eng *engine.Engine) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask me anything..."
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(inputHeight)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Thinking

	m := &Model{
		store:    store,
		engine:   eng,
		textarea: ta,
		spinner:  sp,
	}
	m.appendLine(welcomeLine(store.LastVisit(), time.Now()))
	m.replayConversation()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chromeHeight
		}
		m.renderer = render.New(msg.Width - 2)
		m.refreshViewport()
		m.textarea.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+n":
			m.startNewConversation()
		case "ctrl+l":
			m.clearConversation()
		case "enter":
			// Swallow the key so the reset textarea doesn't gain a
			// newline.
			if cmd := m.submit(); cmd != nil {
				return m, tea.Batch(cmd, m.spinner.Tick)
			}
			return m, nil
		}

	case MessageShownMsg:
		if msg.Role != chat.RoleUser {
			m.appendMessage(msg.Role, msg.Text)
		}

	case ToolUseMsg:
		m.appendLine(styles.ToolNote.Render(render.ToolIndicator(msg.Name)))

	case ErrorShownMsg:
		m.appendLine(styles.ErrorText.Render(msg.Text))

	case ThinkingMsg:
		m.thinking = msg.Thinking

	case TitleChangedMsg:
		// The header reads the store, nothing to do beyond a redraw.

	case turnDoneMsg:
		m.thinking = false

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	title := "muse"
	if conv := m.store.Current(); conv != nil {
		title = conv.Title
	}

	status := ""
	if m.thinking {
		status = m.spinner.View() + styles.Thinking.Render(" thinking")
	}

	var b strings.Builder
	b.WriteString(styles.Header.Width(m.width).Render(title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(styles.InputBox.Width(m.width - 2).Render(m.textarea.View()))
	b.WriteString("\n")
	b.WriteString(styles.Footer.Render("enter send · ctrl+n new · ctrl+l clear · esc quit"))
	return b.String()
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the textarea contents through the engine on a worker
// goroutine; events come back as Sink messages.
func (m *Model) submit() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" || m.thinking {
		return nil
	}
	m.textarea.Reset()
	m.appendMessage(chat.RoleUser, input)

	eng := m.engine
	return func() tea.Msg {
		err := eng.ProcessUserMessage(context.Background(), input)
		return turnDoneMsg{err: err}
	}
}

func (m *Model) startNewConversation() {
	if m.thinking {
		return
	}
	if _, err := m.store.CreateConversation(); err != nil {
		m.appendLine(styles.ErrorText.Render("Error: " + err.Error()))
		return
	}
	m.transcript = nil
	m.appendMessage(chat.RoleModel, storage.GreetingNew)
}

func (m *Model) clearConversation() {
	if m.thinking {
		return
	}
	id := m.store.CurrentID()
	if id == "" {
		return
	}
	if err := m.store.ClearConversation(id); err != nil {
		m.appendLine(styles.ErrorText.Render("Error: " + err.Error()))
		return
	}
	m.transcript = nil
	m.appendMessage(chat.RoleModel, storage.GreetingCleared)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// replayConversation loads the active conversation into the transcript.
func (m *Model) replayConversation() {
	conv := m.store.Current()
	if conv == nil {
		return
	}
	for _, msg := range conv.Messages {
		if msg.Text() != "" {
			m.appendMessage(msg.Role, msg.Text())
		}
	}
}

func (m *Model) appendMessage(role, text string) {
	label := styles.AssistantLabel.Render("muse")
	if role == chat.RoleUser {
		label = styles.UserLabel.Render("you")
	}
	body := text
	if m.renderer != nil && role != chat.RoleUser {
		body = strings.TrimRight(m.renderer.Render(role, text), "\n")
	}
	m.appendLine(label + "\n" + body + "\n")
}

func (m *Model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	content := strings.Join(m.transcript, "\n")
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(content))
	m.viewport.GotoBottom()
}

// =============================================================================
// GREETING
// =============================================================================

// welcomeLine personalizes the greeting by time of day and time since
// the last visit.
func welcomeLine(lastVisit, now time.Time) string {
	var daypart string
	switch h := now.Hour(); {
	case h < 5:
		daypart = "Up late?"
	case h < 12:
		daypart = "Good morning!"
	case h < 18:
		daypart = "Good afternoon!"
	default:
		daypart = "Good evening!"
	}

	switch {
	case lastVisit.IsZero():
		return fmt.Sprintf("%s Welcome to muse.", daypart)
	case now.Sub(lastVisit) > 30*24*time.Hour:
		return fmt.Sprintf("%s It's been a while - welcome back.", daypart)
	default:
		return fmt.Sprintf("%s Welcome back.", daypart)
	}
}
