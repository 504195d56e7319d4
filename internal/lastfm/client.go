// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lastfm is a minimal Last.fm client covering the now-playing
// lookup the assistant's music tool needs.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the Last.fm API root.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// DefaultTimeout bounds a Last.fm lookup.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured indicates missing Last.fm credentials.
var ErrNotConfigured = errors.New("Last.fm API key or username not configured")

// ErrNotPlaying indicates the user has no track playing right now.
var ErrNotPlaying = errors.New("no track currently playing")

// Track is the currently playing track.
type Track struct {
	Artist   string `json:"artist"`
	Name     string `json:"name"`
	Album    string `json:"album"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// recentTracksResponse mirrors the slice of the Last.fm reply we read.
type recentTracksResponse struct {
	RecentTracks struct {
		Track []struct {
			Name   string `json:"name"`
			Artist struct {
				Text string `json:"#text"`
			} `json:"artist"`
			Album struct {
				Text string `json:"#text"`
			} `json:"album"`
			Image []struct {
				Size string `json:"size"`
				Text string `json:"#text"`
			} `json:"image"`
			Attr struct {
				NowPlaying string `json:"nowplaying"`
			} `json:"@attr"`
		} `json:"track"`
	} `json:"recenttracks"`
}

// Client queries Last.fm for a single user's listening state.
type Client struct {
	apiKey     string
	username   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Last.fm client. Credentials may be empty; calls
// then fail with ErrNotConfigured.
func NewClient(apiKey, username string) *Client {
	return &Client{
		apiKey:   apiKey,
		username: username,
		baseURL:  DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithBaseURL points the client at a different API root, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// IsConfigured reports whether credentials are present. Safe on a nil
// client so callers can treat "no client" and "no credentials" alike.
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != "" && c.username != ""
}

// NowPlaying returns the track currently playing, ErrNotPlaying when
// nothing is, or an error for transport and format failures.
func (c *Client) NowPlaying(ctx context.Context) (*Track, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("method", "user.getrecenttracks")
	q.Set("user", c.username)
	q.Set("api_key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Last.fm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Last.fm returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed recentTracksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	tracks := parsed.RecentTracks.Track
	if len(tracks) == 0 || tracks[0].Attr.NowPlaying != "true" {
		return nil, ErrNotPlaying
	}

	t := tracks[0]
	track := &Track{
		Artist: t.Artist.Text,
		Name:   t.Name,
		Album:  t.Album.Text,
	}
	for _, img := range t.Image {
		if img.Size == "large" && img.Text != "" {
			track.ImageURL = img.Text
			break
		}
	}
	return track, nil
}
