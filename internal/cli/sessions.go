// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Conversation management command handler.
//
// Command: sessions [list|show|export|delete|clear]
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/config"
	"github.com/jeranaias/muse/internal/render"
	"github.com/jeranaias/muse/internal/storage"
)

// HandleSessions dispatches the sessions subcommands.
func HandleSessions(args Args) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	store, err := storage.Open(dataDir)
	if err != nil {
		return err
	}

	sub := "list"
	if len(args.Raw) > 0 {
		sub = strings.ToLower(args.Raw[0])
	}
	rest := args.Raw
	if len(rest) > 0 {
		rest = rest[1:]
	}

	switch sub {
	case "list", "ls":
		fmt.Print(storage.FormatList(store.List(), store.CurrentID()))
		return nil

	case "show":
		conv, err := findConversation(store, rest)
		if err != nil {
			return err
		}
		return showConversation(conv, args)

	case "export":
		conv, err := findConversation(store, rest)
		if err != nil {
			return err
		}
		return exportConversation(conv, rest, args)

	case "delete", "rm":
		conv, err := findConversation(store, rest)
		if err != nil {
			return err
		}
		if err := store.DeleteConversation(conv.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %s.\n", conv.ID)
		return nil

	case "clear":
		conv, err := findConversation(store, rest)
		if err != nil {
			return err
		}
		if err := store.ClearConversation(conv.ID); err != nil {
			return err
		}
		fmt.Printf("Cleared %s.\n", conv.ID)
		return nil

	default:
		return fmt.Errorf("unknown sessions subcommand %q (want list, show, export, delete, or clear)", sub)
	}
}

// findConversation resolves the first positional argument to a
// conversation, accepting either a full ID or a unique ID prefix.
func findConversation(store *storage.Store, rest []string) (*storage.Conversation, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("missing conversation id (see `muse sessions list`)")
	}
	id := rest[0]
	if conv, ok := store.Get(id); ok {
		return conv, nil
	}

	var match *storage.Conversation
	for _, conv := range store.List() {
		if strings.HasPrefix(conv.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous id prefix %q", id)
			}
			match = conv
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no conversation %q", id)
	}
	return match, nil
}

func showConversation(conv *storage.Conversation, args Args) error {
	if args.JSON {
		data, err := conv.ExportJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	if args.Plain || !IsTerminal() {
		fmt.Print(conv.ExportMarkdown())
		return nil
	}
	r := render.New(TerminalWidth())
	fmt.Println(accentLine(conv.Title))
	for _, msg := range conv.Messages {
		if msg.Text() == "" {
			continue
		}
		if msg.Role == chat.RoleUser {
			fmt.Println("you> " + msg.Text())
			continue
		}
		fmt.Print(r.Render(msg.Role, msg.Text()))
	}
	return nil
}

func exportConversation(conv *storage.Conversation, rest []string, args Args) error {
	var data []byte
	if args.JSON {
		d, err := conv.ExportJSON()
		if err != nil {
			return err
		}
		data = d
	} else {
		data = []byte(conv.ExportMarkdown())
	}

	// Second positional is an optional output file.
	if len(rest) > 1 {
		path := rest[1]
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Exported %s to %s.\n", conv.ID, path)
		return nil
	}

	fmt.Print(string(data))
	return nil
}
