// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/muse/internal/api"
	"github.com/jeranaias/muse/internal/chat"
	"github.com/jeranaias/muse/internal/storage"
)

// MaxToolRounds bounds the tool-call loop within one turn. A model that
// keeps requesting tools past this limit ends the turn with an error
// instead of cycling forever.
const MaxToolRounds = 5

// State is the engine's position within a turn.
type State int

const (
	StateIdle State = iota
	StateAwaitingModel
	StateAwaitingTool
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting-model"
	case StateAwaitingTool:
		return "awaiting-tool"
	default:
		return "idle"
	}
}

// ErrToolLimit ends a turn whose model kept requesting tools.
var ErrToolLimit = errors.New("tool call limit reached")

// ModelCaller is the model endpoint surface the engine needs.
type ModelCaller interface {
	Ask(ctx context.Context, history []chat.Message) (chat.Message, error)
	AskPrompt(ctx context.Context, prompt string) (chat.Message, error)
}

// ToolCaller executes a named tool and returns its structured result.
type ToolCaller interface {
	ExecuteTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
}

// Sink receives display events from the engine. Implementations render
// them however the surface wants (TUI viewport, REPL stdout); the
// engine itself never touches a terminal.
type Sink interface {
	// MessageShown delivers a user or model message for display.
	MessageShown(role, text string)

	// ToolUseShown delivers a transient "using tool" indicator.
	ToolUseShown(name string)

	// ErrorShown delivers an error line, prefixed distinctly from
	// normal model text.
	ErrorShown(text string)

	// ThinkingChanged reports the thinking flag flipping.
	ThinkingChanged(thinking bool)

	// TitleChanged reports a conversation receiving a generated title.
	TitleChanged(conversationID, title string)
}

// Engine is the chat turn state machine.
type Engine struct {
	mu    sync.Mutex
	store *storage.Store
	model ModelCaller
	tools ToolCaller
	sink  Sink

	state    State
	thinking bool

	// titleWG tracks in-flight title generation so surfaces can drain
	// it before shutdown.
	titleWG sync.WaitGroup
}

// New creates an engine over the given store, gateway client, and sink.
func New(store *storage.Store, model ModelCaller, tools ToolCaller, sink Sink) *Engine {
	return &Engine{
		store: store,
		model: model,
		tools: tools,
		sink:  sink,
		state: StateIdle,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsThinking reports whether a turn is in flight.
func (e *Engine) IsThinking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thinking
}

// Wait blocks until background title generation has finished. Surfaces
// call this on shutdown so a generated title is never lost.
func (e *Engine) Wait() {
	e.titleWG.Wait()
}

// ProcessUserMessage runs one full turn: append the user message, call
// the model, execute requested tools, and render the final answer.
// Empty input, or input arriving while a turn is in flight, is a no-op.
//
// The turn is bound to the conversation that is current when it starts;
// switching conversations mid-flight cannot redirect the reply.
func (e *Engine) ProcessUserMessage(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	e.mu.Lock()
	if e.thinking {
		e.mu.Unlock()
		return nil
	}
	conv := e.store.Current()
	if conv == nil {
		if _, err := e.store.CreateConversation(); err != nil {
			e.mu.Unlock()
			return err
		}
		conv = e.store.Current()
	}
	convID := conv.ID

	if err := e.store.AppendMessage(convID, chat.NewUserMessage(input)); err != nil {
		e.mu.Unlock()
		return err
	}
	e.setThinkingLocked(true)
	e.mu.Unlock()

	e.sink.MessageShown(chat.RoleUser, input)

	err := e.modelLoop(ctx, convID)

	e.mu.Lock()
	e.state = StateIdle
	e.setThinkingLocked(false)
	firstExchange := false
	if c, ok := e.store.Get(convID); ok {
		firstExchange = err == nil && c.UserMessageCount() == 1
	}
	e.mu.Unlock()

	// Fire-and-forget: a title failure never surfaces to the user and
	// does not hold the engine out of Idle.
	if firstExchange {
		e.titleWG.Add(1)
		go func() {
			defer e.titleWG.Done()
			e.generateTitle(ctx, convID)
		}()
	}
	return err
}

// modelLoop calls the model with the conversation's full history and
// dispatches the reply: text ends the turn, a function call runs the
// tool and re-enters the model call with the extended history.
func (e *Engine) modelLoop(ctx context.Context, convID string) error {
	for round := 0; round < MaxToolRounds; round++ {
		e.setState(StateAwaitingModel)

		history := e.snapshot(convID)
		reply, err := e.model.Ask(ctx, history)
		if err != nil {
			e.sink.ErrorShown(errorLine(err))
			return err
		}

		part, err := reply.First()
		if err != nil || (part.Kind() != chat.PartText && part.Kind() != chat.PartFunctionCall) {
			// A reply with neither text nor a call is unusable; the
			// history is left exactly as it was before this round.
			ferr := fmt.Errorf("%w: reply has no text or function call", api.ErrFormat)
			e.sink.ErrorShown(errorLine(ferr))
			return ferr
		}

		if err := e.append(convID, reply); err != nil {
			return err
		}

		if part.Kind() == chat.PartText {
			e.sink.MessageShown(chat.RoleModel, part.Text)
			return nil
		}

		// Function call round: record the indicator, execute, append
		// the result, and go around again.
		call := part.FunctionCall
		e.sink.ToolUseShown(call.Name)
		e.setState(StateAwaitingTool)

		result, err := e.tools.ExecuteTool(ctx, call.Name, call.Args)
		if err != nil {
			e.sink.ErrorShown(errorLine(err))
			return err
		}
		if err := e.append(convID, chat.NewToolMessage(call.Name, result)); err != nil {
			return err
		}
	}

	e.sink.ErrorShown(errorLine(ErrToolLimit))
	return ErrToolLimit
}

func (e *Engine) snapshot(convID string) []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.store.Get(convID)
	if !ok {
		return nil
	}
	history := make([]chat.Message, len(conv.Messages))
	copy(history, conv.Messages)
	return history
}

func (e *Engine) append(convID string, msg chat.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.AppendMessage(convID, msg)
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) setThinkingLocked(thinking bool) {
	if e.thinking == thinking {
		return
	}
	e.thinking = thinking
	e.sink.ThinkingChanged(thinking)
}

// errorLine formats a failure as a chat line, prefixed so it cannot be
// mistaken for model output.
func errorLine(err error) string {
	var te *api.ToolError
	if errors.As(err, &te) {
		return "Tool error: " + te.Message
	}
	var se *api.ServiceError
	if errors.As(err, &se) {
		return "Error: " + se.Message
	}
	switch {
	case errors.Is(err, api.ErrNetwork):
		return "Error: could not reach the assistant. Check your connection and try again."
	case errors.Is(err, api.ErrFormat):
		return "Error: the assistant returned an unexpected response."
	case errors.Is(err, ErrToolLimit):
		return "Error: the assistant requested too many tool calls in a row."
	default:
		return "Error: " + err.Error()
	}
}
