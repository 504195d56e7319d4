// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const nowPlayingBody = `{
  "recenttracks": {
    "track": [{
      "name": "Weightless",
      "artist": {"#text": "Marconi Union"},
      "album": {"#text": "Ambient 1"},
      "image": [
        {"size": "small", "#text": "http://img/small.png"},
        {"size": "large", "#text": "http://img/large.png"}
      ],
      "@attr": {"nowplaying": "true"}
    }]
  }
}`

const idleBody = `{
  "recenttracks": {
    "track": [{
      "name": "Old Song",
      "artist": {"#text": "Someone"},
      "album": {"#text": "Album"},
      "image": []
    }]
  }
}`

func TestNowPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "user.getrecenttracks" || q.Get("limit") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(nowPlayingBody))
	}))
	defer srv.Close()

	client := NewClient("key", "listener").WithBaseURL(srv.URL)
	track, err := client.NowPlaying(context.Background())
	if err != nil {
		t.Fatalf("NowPlaying failed: %v", err)
	}
	if track.Artist != "Marconi Union" || track.Name != "Weightless" || track.Album != "Ambient 1" {
		t.Errorf("track = %+v", track)
	}
	if track.ImageURL != "http://img/large.png" {
		t.Errorf("ImageURL = %q, want the large image", track.ImageURL)
	}
}

func TestNowPlaying_NothingPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(idleBody))
	}))
	defer srv.Close()

	_, err := NewClient("key", "listener").WithBaseURL(srv.URL).NowPlaying(context.Background())
	if !errors.Is(err, ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}
}

func TestNowPlaying_NotConfigured(t *testing.T) {
	_, err := NewClient("", "").NowPlaying(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNowPlaying_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient("key", "listener").WithBaseURL(srv.URL).NowPlaying(context.Background())
	if err == nil {
		t.Error("expected error for upstream failure")
	}
}
