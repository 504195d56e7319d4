// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/muse/internal/lastfm"
)

func TestRegistry_RegisterAndExecute(t *testing.T) {
	r := NewRegistry()
	r.Register(&Tool{
		Name: "echo",
		Run: func(ctx context.Context, inv Invocation) (map[string]any, error) {
			return map[string]any{"echo": inv.Args["value"]}, nil
		},
	})

	result, err := r.Execute(context.Background(), Invocation{
		Name: "echo",
		Args: map[string]any{"value": "hello"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["echo"] != "hello" {
		t.Errorf("result = %v", result)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), Invocation{Name: "missing"})
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("expected unknown-tool error, got %v", err)
	}
}

func TestRegistry_TimeoutApplies(t *testing.T) {
	r := NewRegistry()
	r.Register(&Tool{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context, inv Invocation) (map[string]any, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
				return map[string]any{"done": true}, nil
			}
		},
	})

	start := time.Now()
	_, err := r.Execute(context.Background(), Invocation{Name: "slow"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout not applied")
	}
}

func TestDefaultRegistry_Declarations(t *testing.T) {
	r := NewDefaultRegistry(lastfm.NewClient("", ""))

	decls := r.Declarations()
	if len(decls) != 2 {
		t.Fatalf("declarations = %d, want 2 advertised tools", len(decls))
	}
	if decls[0].Name != "get_now_playing" || decls[1].Name != "get_current_time" {
		t.Errorf("declarations = %+v", decls)
	}

	// All four tools remain executable.
	names := r.Names()
	if len(names) != 4 {
		t.Errorf("registered tools = %v", names)
	}
}

func TestCurrentTimeTool(t *testing.T) {
	r := NewDefaultRegistry(lastfm.NewClient("", ""))
	result, err := r.Execute(context.Background(), Invocation{Name: "get_current_time"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["timezone"] != "IST (India Standard Time)" {
		t.Errorf("timezone = %v", result["timezone"])
	}
	if _, ok := result["time"].(string); !ok {
		t.Errorf("time = %v", result["time"])
	}
}

func TestNowPlayingTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recenttracks":{"track":[{
			"name":"B","artist":{"#text":"A"},"album":{"#text":"C"},
			"image":[],"@attr":{"nowplaying":"true"}}]}}`))
	}))
	defer srv.Close()

	music := lastfm.NewClient("key", "user").WithBaseURL(srv.URL)
	r := NewDefaultRegistry(music)

	result, err := r.Execute(context.Background(), Invocation{Name: "get_now_playing"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result["artist"] != "A" || result["song"] != "B" || result["album"] != "C" {
		t.Errorf("result = %v", result)
	}
}

func TestNowPlayingTool_Unconfigured(t *testing.T) {
	r := NewDefaultRegistry(lastfm.NewClient("", ""))
	result, err := r.Execute(context.Background(), Invocation{Name: "get_now_playing"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "not configured") {
		t.Errorf("expected a configuration message in the result, got %v", result)
	}
}

func TestVisitorIPTool(t *testing.T) {
	r := NewDefaultRegistry(lastfm.NewClient("", ""))

	result, _ := r.Execute(context.Background(), Invocation{Name: "get_visitor_ip", ClientIP: "203.0.113.9"})
	if result["ip_address"] != "203.0.113.9" {
		t.Errorf("result = %v", result)
	}

	result, _ = r.Execute(context.Background(), Invocation{Name: "get_visitor_ip"})
	if result["ip_address"] != "Unavailable" {
		t.Errorf("result = %v", result)
	}
}

func TestInterpretDreamTool(t *testing.T) {
	r := NewDefaultRegistry(lastfm.NewClient("", ""))
	result, err := r.Execute(context.Background(), Invocation{
		Name: "interpret_dream",
		Args: map[string]any{"dream_description": "flying over the sea"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	interp, _ := result["interpretation"].(string)
	if !strings.Contains(interp, "flying over the sea") {
		t.Errorf("interpretation = %q", interp)
	}
}
