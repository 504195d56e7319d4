// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handler.
//
// Command: config [show|path|init]
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/muse/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	sub := "show"
	if len(args.Raw) > 0 {
		sub = strings.ToLower(args.Raw[0])
	}

	switch sub {
	case "show":
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		printConfig(cfg)
		return nil

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s.\n", path)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (want show, path, or init)", sub)
	}
}

// printConfig dumps the effective configuration with secrets redacted.
func printConfig(cfg *config.Config) {
	fmt.Println("gateway.base_url     =", cfg.Gateway.BaseURL)
	fmt.Println("gateway.timeout_secs =", cfg.Gateway.TimeoutSecs)
	fmt.Println("server.port          =", cfg.Server.Port)
	fmt.Println("server.rate_limit    =", cfg.Server.RateLimit)
	fmt.Println("gemini.model         =", cfg.Gemini.Model)
	fmt.Println("gemini.api_key       =", redact(cfg.Gemini.APIKey))
	fmt.Println("lastfm.username      =", cfg.LastFM.Username)
	fmt.Println("lastfm.api_key       =", redact(cfg.LastFM.APIKey))
	fmt.Println("ui.word_wrap         =", cfg.UI.WordWrap)
	fmt.Println("ui.syntax_theme      =", cfg.UI.SyntaxTheme)
}

// redact hides all but the first characters of a secret.
func redact(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
