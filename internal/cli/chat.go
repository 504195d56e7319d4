// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL.
//
// Command: chat
//
// A line-based alternative to the TUI for dumb terminals, SSH sessions,
// and scripting. Input history and line editing are provided by liner.
//
// Slash commands:
//   /new            Start a new conversation
//   /clear          Clear the current conversation
//   /list           List conversations
//   /switch <id>    Switch to a conversation
//   /delete <id>    Delete a conversation
//   /copy [n]       Copy the nth code block of the last reply
//   /help           Show commands
//   /quit           Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/config"
	"github.com/jeranaias/muse/internal/engine"
	"github.com/jeranaias/muse/internal/render"
	"github.com/jeranaias/muse/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with persistent input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with history navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SINK
// =============================================================================

// replSink prints engine events to stdout.
type replSink struct {
	renderer *render.Renderer
	plain    bool

	// lastReply keeps the most recent model text for /copy.
	lastReply string
}

func (s *replSink) MessageShown(role, text string) {
	if role == chat.RoleModel {
		s.lastReply = text
	}
	if role == chat.RoleUser {
		// The user already sees their own input line.
		return
	}
	if s.plain {
		fmt.Println(text)
		return
	}
	fmt.Print(s.renderer.Render(role, text))
}

func (s *replSink) ToolUseShown(name string) {
	fmt.Println(dim(render.ToolIndicator(name)))
}

func (s *replSink) ErrorShown(text string) {
	fmt.Println(errorLine(text))
}

func (s *replSink) ThinkingChanged(thinking bool) {
	if thinking {
		fmt.Println(dim("· thinking ·"))
	}
}

func (s *replSink) TitleChanged(conversationID, title string) {
	fmt.Println(dim(fmt.Sprintf("(conversation titled %q)", title)))
}

// =============================================================================
// REPL
// =============================================================================

// HandleChat runs the interactive chat REPL.
func HandleChat(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}

	client := newGatewayClient(cfg, args)
	sink := &replSink{
		renderer: render.New(TerminalWidth()),
		plain:    args.Plain,
	}
	eng := engine.New(store, client, client, sink)

	input := NewChatCLI()
	defer input.Close()

	printWelcome(store, sink)
	store.TouchVisit()

	for {
		line, err := input.ReadInput("you> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			// io.EOF on ctrl-d
			fmt.Println()
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runSlashCommand(store, sink, line); quit {
				break
			}
			continue
		}

		if err := eng.ProcessUserMessage(context.Background(), line); err != nil {
			// The sink already showed the error line.
			continue
		}
	}

	// Drain title generation before the store goes away.
	eng.Wait()
	return nil
}

// printWelcome greets the user, personalizing by last visit time and
// replaying the active conversation.
func printWelcome(store *storage.Store, sink *replSink) {
	last := store.LastVisit()
	switch {
	case last.IsZero():
		fmt.Println(accentLine("Welcome to muse."))
	case time.Since(last) > 30*24*time.Hour:
		fmt.Println(accentLine("It's been a while! Welcome back."))
	default:
		fmt.Println(accentLine("Welcome back."))
	}
	fmt.Println(dim("Type /help for commands."))
	fmt.Println()

	if conv := store.Current(); conv != nil {
		for _, msg := range conv.Messages {
			if msg.Role == chat.RoleModel && msg.Text() != "" {
				sink.MessageShown(msg.Role, msg.Text())
			}
		}
	}
}

// runSlashCommand executes a /command. Returns true when the REPL
// should exit.
func runSlashCommand(store *storage.Store, sink *replSink, line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		fmt.Println(dim("/new /clear /list /switch <id> /delete <id> /copy [n] /quit"))

	case "/new":
		if _, err := store.CreateConversation(); err != nil {
			fmt.Println(errorLine("Error: " + err.Error()))
			break
		}
		fmt.Println(dim("Started a new conversation."))
		fmt.Println(storage.GreetingNew)

	case "/clear":
		id := store.CurrentID()
		if id == "" {
			fmt.Println(dim("No active conversation."))
			break
		}
		if err := store.ClearConversation(id); err != nil {
			fmt.Println(errorLine("Error: " + err.Error()))
			break
		}
		fmt.Println(storage.GreetingCleared)

	case "/list", "/ls":
		fmt.Print(storage.FormatList(store.List(), store.CurrentID()))

	case "/switch":
		if arg == "" {
			fmt.Println(dim("Usage: /switch <id>"))
			break
		}
		ok, err := store.LoadConversation(arg)
		if err != nil {
			fmt.Println(errorLine("could not switch conversation: " + err.Error()))
			break
		}
		if !ok {
			fmt.Println(errorLine("No such conversation: " + arg))
			break
		}
		if conv := store.Current(); conv != nil {
			fmt.Println(dim("Switched to " + conv.Title + "."))
		}

	case "/delete", "/rm":
		if arg == "" {
			fmt.Println(dim("Usage: /delete <id>"))
			break
		}
		if err := store.DeleteConversation(arg); err != nil {
			fmt.Println(errorLine("Error: " + err.Error()))
			break
		}
		fmt.Println(dim("Deleted."))

	case "/copy":
		copyCodeBlock(sink.lastReply, arg)

	default:
		fmt.Println(dim("Unknown command. Type /help for commands."))
	}
	return false
}

// copyCodeBlock copies the nth fenced code block from the last reply to
// the clipboard (1-based; defaults to the first).
func copyCodeBlock(lastReply, arg string) {
	blocks := render.ExtractCodeBlocks(lastReply)
	if len(blocks) == 0 {
		fmt.Println(dim("No code blocks in the last reply."))
		return
	}
	n := 1
	if arg != "" {
		fmt.Sscanf(arg, "%d", &n)
	}
	if n < 1 || n > len(blocks) {
		fmt.Println(errorLine(fmt.Sprintf("No code block %d (have %d).", n, len(blocks))))
		return
	}
	if err := blocks[n-1].Copy(); err != nil {
		fmt.Println(errorLine("Copy failed: " + err.Error()))
		return
	}
	fmt.Println(dim("Copied to clipboard."))
}
