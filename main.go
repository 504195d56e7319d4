// muse - a terminal chat assistant with a personality.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/muse/internal/api"
	"github.com/jeranaias/muse/internal/cli"
	"github.com/jeranaias/muse/internal/config"
	"github.com/jeranaias/muse/internal/engine"
	"github.com/jeranaias/muse/internal/storage"
	"github.com/jeranaias/muse/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdServe:
		err = cli.HandleServe(args)
	case cli.CmdSessions:
		err = cli.HandleSessions(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI opens the store and gateway client and launches the
// full-screen interface.
func runTUI(args cli.Args) error {
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

	base := cfg.Gateway.BaseURL
	if args.Gateway != "" {
		base = args.Gateway
	}
	client := api.NewClient(base)
	if cfg.Gateway.TimeoutSecs > 0 {
		client = client.WithTimeout(time.Duration(cfg.Gateway.TimeoutSecs) * time.Second)
	}

	return ui.Run(store, func(sink *ui.Sink) *engine.Engine {
		return engine.New(store, client, client, sink)
	})
}
