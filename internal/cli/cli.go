// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for muse.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	// CmdTUI launches the full-screen chat interface (the default).
	CmdTUI Command = iota
	// CmdChat runs the line-based REPL for dumb terminals and scripts.
	CmdChat
	// CmdAsk sends a single question and prints the reply.
	CmdAsk
	// CmdServe runs the API gateway.
	CmdServe
	// CmdSessions manages saved conversations.
	CmdSessions
	// CmdConfig shows or initializes configuration.
	CmdConfig
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage.
	CmdHelp
)

// Args carries parsed command-line options to the handlers.
type Args struct {
	// Gateway overrides the gateway base URL from config.
	Gateway string
	// Plain disables markdown rendering and color.
	Plain bool
	// JSON switches machine-readable output where a handler supports it.
	JSON bool
	// Port overrides the serve port.
	Port int
	// Query is the joined positional text for ask.
	Query string
	// Raw is the remaining positional arguments after the command.
	Raw []string
}

// Parse parses os.Args and returns the command and its arguments.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

func parse(argv []string) (Command, Args) {
	var args Args
	var positional []string

	i := 0
	for i < len(argv) {
		a := argv[i]
		switch {
		case a == "--help" || a == "-h" || a == "help":
			return CmdHelp, args
		case a == "--version" || a == "-V":
			return CmdVersion, args
		case a == "--plain":
			args.Plain = true
			i++
		case a == "--json":
			args.JSON = true
			i++
		case a == "--gateway":
			if i+1 < len(argv) {
				args.Gateway = argv[i+1]
				i += 2
				continue
			}
			i++
		case strings.HasPrefix(a, "--gateway="):
			args.Gateway = strings.TrimPrefix(a, "--gateway=")
			i++
		case a == "--port" || a == "-p":
			if i+1 < len(argv) {
				fmt.Sscanf(argv[i+1], "%d", &args.Port)
				i += 2
				continue
			}
			i++
		case strings.HasPrefix(a, "--port="):
			fmt.Sscanf(strings.TrimPrefix(a, "--port="), "%d", &args.Port)
			i++
		default:
			positional = append(positional, a)
			i++
		}
	}

	if len(positional) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(positional[0])
	args.Raw = positional[1:]

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "chat":
		return CmdChat, args
	case "ask":
		args.Query = strings.Join(args.Raw, " ")
		return CmdAsk, args
	case "serve", "server":
		return CmdServe, args
	case "sessions", "session":
		return CmdSessions, args
	case "config":
		return CmdConfig, args
	case "version":
		return CmdVersion, args
	default:
		// Bare text is treated as a one-shot ask: `muse what time is it`
		args.Query = strings.Join(positional, " ")
		return CmdAsk, args
	}
}

const usageText = `muse - terminal chat assistant

Usage:
  muse                      Launch the chat TUI
  muse chat                 Line-based chat REPL
  muse ask <question>       Ask a single question
  muse serve                Run the API gateway
  muse sessions [cmd]       Manage saved conversations
  muse config [cmd]         Show or initialize configuration
  muse version              Print version

Flags:
  --gateway URL             Gateway base URL (default http://localhost:8787)
  --plain                   Disable markdown rendering and color
  --json                    Machine-readable output where supported
  -p, --port N              Port for serve (default 8787)
  -h, --help                Show this help

Sessions:
  muse sessions list                List conversations
  muse sessions show <id>           Print a conversation
  muse sessions export <id> [file]  Export as markdown (--json for JSON)
  muse sessions delete <id>         Delete a conversation
  muse sessions clear <id>          Clear a conversation's messages

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("muse version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}
