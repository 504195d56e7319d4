// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/gemini"
	"github.com/jeranaias/muse/internal/lastfm"
	"github.com/jeranaias/muse/internal/tools"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the gateway.
	DefaultPort = 8787

	// MaxRequestBodySize is the maximum accepted request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxHistoryLength caps the number of messages accepted per ask.
	MaxHistoryLength = 200

	// Version is the gateway version.
	Version = "0.1.0"
)

// DefaultPersona is the system instruction sent with every model call.
const DefaultPersona = "You are Judson's AI Assistant. You are creative, concise, and helpful. " +
	"You can use tools to get real-time information about the current time in India " +
	"and what music Judson is listening to. For general conversation, respond directly."

// ModelBackend generates a model reply for a chat history.
type ModelBackend interface {
	Generate(ctx context.Context, history []chat.Message) (chat.Message, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the muse gateway HTTP server.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server

	model   ModelBackend
	tools   *tools.Registry
	music   *lastfm.Client
	cors    *CORSConfig
	limiter *RateLimiter
	maxBody int64
	logger  *log.Logger
}

// NewServer creates a gateway listening on port (0 means DefaultPort).
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}
	s := &Server{
		port:    port,
		router:  http.NewServeMux(),
		cors:    DefaultCORSConfig(),
		limiter: NewRateLimiter(5, 10),
		maxBody: MaxRequestBodySize,
		logger:  log.Default(),
	}
	s.setupRoutes()
	return s
}

// WithModel sets the model backend.
func (s *Server) WithModel(m ModelBackend) *Server {
	s.model = m
	return s
}

// WithTools sets the tool registry.
func (s *Server) WithTools(r *tools.Registry) *Server {
	s.tools = r
	return s
}

// WithMusic sets the Last.fm client.
func (s *Server) WithMusic(c *lastfm.Client) *Server {
	s.music = c
	return s
}

// WithCORS sets the CORS configuration.
func (s *Server) WithCORS(c *CORSConfig) *Server {
	s.cors = c
	return s
}

// WithRateLimiter sets the per-IP rate limiter.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	s.limiter = rl
	return s
}

// WithMaxBodyBytes sets the request body size cap.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBody = n
	}
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(l *log.Logger) *Server {
	s.logger = l
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/ask", s.handleAsk)
	s.router.HandleFunc("POST /api/tools", s.handleTools)
	s.router.HandleFunc("GET /api/now-playing", s.handleNowPlaying)
	s.router.HandleFunc("GET /api/time", s.handleTime)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the full handler with the middleware chain applied.
// Exposed so tests can drive the gateway through httptest.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.cors),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// askRequest carries either a full chat history or a bare one-shot prompt.
type askRequest struct {
	History []chat.Message `json:"history,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
}

// askResponse carries the model's reply back to the client.
type askResponse struct {
	Response chat.Message `json:"response"`
}

// toolRequest names a tool and its arguments.
type toolRequest struct {
	ToolName string         `json:"toolName"`
	Args     map[string]any `json:"args,omitempty"`
}

// ============================================================================
// ASK HANDLER
// ============================================================================

// handleAsk forwards the chat history to the model backend.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeMessage(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", s.maxBody))
			return
		}
		s.writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if len(req.History) == 0 && req.Prompt == "" {
		s.writeMessage(w, http.StatusBadRequest, `Request body must contain "history" or "prompt".`)
		return
	}
	if len(req.History) > MaxHistoryLength {
		s.writeMessage(w, http.StatusBadRequest, "Chat history too long")
		return
	}

	history := req.History
	if len(history) == 0 {
		history = []chat.Message{chat.NewUserMessage(req.Prompt)}
	}
	for _, m := range history {
		if err := m.Validate(); err != nil {
			s.writeMessage(w, http.StatusBadRequest, "Invalid message in history")
			return
		}
	}

	if s.model == nil {
		s.writeMessage(w, http.StatusInternalServerError, "Server configuration error: API key not found.")
		return
	}

	reply, err := s.model.Generate(r.Context(), history)
	if err != nil {
		s.writeAskError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, askResponse{Response: reply})
}

// writeAskError maps model backend failures to gateway replies. An empty
// candidate list is not an error to the client: it becomes a normal model
// message apologizing for the miss.
func (s *Server) writeAskError(w http.ResponseWriter, err error) {
	if errors.Is(err, gemini.ErrNoCandidates) {
		s.writeJSON(w, http.StatusOK, askResponse{
			Response: chat.NewModelMessage("I'm sorry, I couldn't generate a response. Please try again."),
		})
		return
	}
	if errors.Is(err, gemini.ErrNotConfigured) {
		s.writeMessage(w, http.StatusInternalServerError, "Server configuration error: API key not found.")
		return
	}
	var upstream *gemini.UpstreamError
	if errors.As(err, &upstream) {
		s.logger.Printf("GEMINI_ERROR | status=%d", upstream.Status)
		s.writeMessage(w, upstream.Status, "An error occurred while communicating with the AI. Please try again.")
		return
	}
	s.logger.Printf("ASK_ERROR | %v", err)
	s.writeMessage(w, http.StatusInternalServerError, "An internal server error occurred.")
}

// ============================================================================
// TOOL HANDLER
// ============================================================================

// handleTools executes a tool on behalf of the model. Tool failures are
// soft: they come back as 200 with an "error" field so the model can
// relay them conversationally.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request format"})
		return
	}
	if req.ToolName == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing toolName"})
		return
	}
	if s.tools == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"error": fmt.Sprintf("Unknown tool: %s", req.ToolName)})
		return
	}

	result, err := s.tools.Execute(r.Context(), tools.Invocation{
		Name:     req.ToolName,
		Args:     req.Args,
		ClientIP: GetClientIP(r),
	})
	if err != nil {
		s.logger.Printf("TOOL_ERROR | tool=%s err=%v", req.ToolName, err)
		s.writeJSON(w, http.StatusOK, map[string]any{"error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// ============================================================================
// NOW PLAYING HANDLER
// ============================================================================

// handleNowPlaying proxies the Last.fm now-playing lookup.
func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	if s.music == nil || !s.music.IsConfigured() {
		s.writeMessage(w, http.StatusInternalServerError, "Server configuration error for music service.")
		return
	}

	track, err := s.music.NowPlaying(r.Context())
	switch {
	case errors.Is(err, lastfm.ErrNotPlaying):
		s.writeMessage(w, http.StatusOK, "No track is currently playing on Last.fm.")
	case err != nil:
		s.logger.Printf("LASTFM_ERROR | %v", err)
		s.writeMessage(w, http.StatusBadGateway, "Could not connect to the music service.")
	default:
		s.writeJSON(w, http.StatusOK, track)
	}
}

// ============================================================================
// TIME HANDLER
// ============================================================================

// handleTime reports the current time in India.
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		s.writeMessage(w, http.StatusInternalServerError, "An internal server error occurred.")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"time":     time.Now().In(loc).Format("03:04 PM"),
		"timezone": "IST (India Standard Time)",
	})
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage writes a {"message": ...} response.
func (s *Server) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}
