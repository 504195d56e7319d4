// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/muse/internal/lastfm"
)

// timeZone is the zone the current-time tool reports.
const timeZone = "Asia/Kolkata"

// NewDefaultRegistry builds the registry with the assistant's built-in
// tools. The music client may be unconfigured; the tool then reports a
// configuration error as its result.
func NewDefaultRegistry(music *lastfm.Client) *Registry {
	r := NewRegistry()

	r.Register(&Tool{
		Name:        "get_now_playing",
		Description: "Get the song currently playing on Last.fm.",
		Advertised:  true,
		Run: func(ctx context.Context, inv Invocation) (map[string]any, error) {
			track, err := music.NowPlaying(ctx)
			switch {
			case errors.Is(err, lastfm.ErrNotPlaying):
				return map[string]any{"status": "Not currently playing anything."}, nil
			case errors.Is(err, lastfm.ErrNotConfigured):
				return map[string]any{"error": "Server not configured for Last.fm API."}, nil
			case err != nil:
				return map[string]any{"error": "Error connecting to Last.fm."}, nil
			}
			return map[string]any{
				"artist": track.Artist,
				"song":   track.Name,
				"album":  track.Album,
			}, nil
		},
	})

	r.Register(&Tool{
		Name:        "get_current_time",
		Description: "Get the current time in India.",
		Advertised:  true,
		Run: func(ctx context.Context, inv Invocation) (map[string]any, error) {
			loc, err := time.LoadLocation(timeZone)
			if err != nil {
				return nil, fmt.Errorf("load time zone: %w", err)
			}
			return map[string]any{
				"time":     time.Now().In(loc).Format("03:04 PM"),
				"timezone": "IST (India Standard Time)",
			}, nil
		},
	})

	r.Register(&Tool{
		Name:        "get_visitor_ip",
		Description: "Get the visitor's IP address.",
		Run: func(ctx context.Context, inv Invocation) (map[string]any, error) {
			ip := inv.ClientIP
			if ip == "" {
				ip = "Unavailable"
			}
			return map[string]any{"ip_address": ip}, nil
		},
	})

	r.Register(&Tool{
		Name:        "interpret_dream",
		Description: "Offer a playful interpretation of a dream.",
		Run: func(ctx context.Context, inv Invocation) (map[string]any, error) {
			dream, _ := inv.Args["dream_description"].(string)
			if dream == "" {
				dream = "an unknown dream"
			}
			return map[string]any{
				"interpretation": fmt.Sprintf(
					"Dreaming of %s often symbolizes a desire for creative freedom and breaking through old boundaries. Or maybe you just ate a spicy curry before bed!",
					dream),
			}, nil
		},
	})

	return r
}
