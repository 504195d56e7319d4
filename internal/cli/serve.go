// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Gateway server command handler.
//
// Command: serve
//
// Runs the muse API gateway, keeping the Gemini and Last.fm keys on the
// server side. Shuts down cleanly on SIGINT/SIGTERM.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/muse/internal/config"
	"github.com/jeranaias/muse/internal/gemini"
	"github.com/jeranaias/muse/internal/lastfm"
	"github.com/jeranaias/muse/internal/server"
	"github.com/jeranaias/muse/internal/tools"
)

// shutdownGrace is how long in-flight requests get to finish.
const shutdownGrace = 10 * time.Second

// HandleServe runs the API gateway until interrupted.
func HandleServe(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if args.Port != 0 {
		port = args.Port
	}

	if cfg.Gemini.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Warning: GEMINI_API_KEY not set; /api/ask will fail")
	}

	music := lastfm.NewClient(cfg.LastFM.APIKey, cfg.LastFM.Username)
	registry := tools.NewDefaultRegistry(music)

	model := gemini.NewClient(cfg.Gemini.APIKey, server.DefaultPersona, registry.Declarations())
	if cfg.Gemini.Model != "" {
		model = model.WithModel(cfg.Gemini.Model)
	}

	srv := server.NewServer(port).
		WithModel(model).
		WithTools(registry).
		WithMusic(music).
		WithCORS(&server.CORSConfig{
			AllowedOrigin:  cfg.Server.AllowedOrigin,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}).
		WithRateLimiter(server.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)).
		WithMaxBodyBytes(cfg.Server.MaxBodyBytes)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
