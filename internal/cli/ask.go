// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler.
//
// Command: ask [question]
//
// Examples:
//   muse ask "What song is playing right now?"
//   muse ask --plain "What time is it in India?"
//   echo "question" | muse ask
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/muse/internal/api"
	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/config"
	"github.com/jeranaias/muse/internal/render"
)

// askTimeout bounds a one-shot question end to end, including any tool
// round-trips the gateway performs.
const askTimeout = 2 * time.Minute

// HandleAsk sends a single question to the gateway and prints the reply.
func HandleAsk(args Args) error {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		// Fall back to stdin so the command composes in pipes.
		if !IsTerminal() {
			data, err := io.ReadAll(bufio.NewReader(os.Stdin))
			if err == nil {
				query = strings.TrimSpace(string(data))
			}
		}
		if query == "" {
			return fmt.Errorf("nothing to ask: provide a question as an argument or on stdin")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := newGatewayClient(cfg, args)

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	reply, err := client.Ask(ctx, []chat.Message{chat.NewUserMessage(query)})
	if err != nil {
		return err
	}

	text := replyText(reply)

	if args.Plain || !IsTerminal() {
		fmt.Println(text)
		return nil
	}
	r := render.New(TerminalWidth())
	fmt.Print(r.Render(chat.RoleModel, text))
	return nil
}

// replyText flattens a model reply for one-shot output. A one-shot ask
// has no tool executor, so a tool request is surfaced as plain text
// rather than silently dropped.
func replyText(reply chat.Message) string {
	if text := reply.Text(); text != "" {
		return text
	}
	if first, err := reply.First(); err == nil && first.FunctionCall != nil {
		return fmt.Sprintf("The assistant wants to use the %q tool. Run `muse chat` for tool support.", first.FunctionCall.Name)
	}
	return ""
}

// newGatewayClient builds the api.Client for the configured gateway,
// honoring the --gateway override.
func newGatewayClient(cfg *config.Config, args Args) *api.Client {
	base := cfg.Gateway.BaseURL
	if args.Gateway != "" {
		base = args.Gateway
	}
	client := api.NewClient(base)
	if cfg.Gateway.TimeoutSecs > 0 {
		client = client.WithTimeout(time.Duration(cfg.Gateway.TimeoutSecs) * time.Second)
	}
	return client
}
