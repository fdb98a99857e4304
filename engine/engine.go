// Package engine orchestrates the completion request pipeline: context
// extraction, async dispatch to the inference backend, normalization, and
// application of suggestions back to the editor.
//
// Each trigger captures a numbered context snapshot, dispatches it in one
// background goroutine, and finishes back on the event loop where the
// result is applied, dropped as superseded, or logged as failed.
// Extraction is synchronous and never touches the network. The engine is
// the error boundary for the whole pipeline: no failure below it surfaces
// to the editor.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pharo-llm/pharo-copilot/eval"
	"github.com/pharo-llm/pharo-copilot/logger"
	"github.com/pharo-llm/pharo-copilot/prompt"
	"github.com/pharo-llm/pharo-copilot/text"
	"github.com/pharo-llm/pharo-copilot/types"
	"github.com/pharo-llm/pharo-copilot/utils"
)

// Backend is the inference boundary the engine dispatches to.
type Backend interface {
	GenerateFillInMiddle(ctx context.Context, modelFullName, prefix, suffix, contextText string) (string, error)
}

// Config holds engine tuning.
type Config struct {
	Model              string        // resolved backend model full name
	CompletionTimeout  time.Duration // per-request timeout on the backend call
	TextChangeDebounce time.Duration // quiet period before a text change triggers
	PrefixTokens       int           // token budget for the prefix, 0 = unlimited
	SuffixTokens       int           // token budget for the suffix, 0 = unlimited
}

// completionResult carries a finished background task back to the loop.
type completionResult struct {
	ctx        *types.CompletionContext
	suggestion *types.Suggestion
}

// Engine drives the completion pipeline for one editor session.
type Engine struct {
	editor    types.Editor
	backend   Backend
	evaluator *eval.Evaluator
	events    *logger.EventLog
	config    Config

	mu              sync.Mutex
	seq             atomic.Uint64
	textChangeTimer *time.Timer
	eventChan       chan Event

	// Last applied suggestion, kept until the user decides on it.
	lastSuggestion *types.Suggestion
	lastContext    *types.CompletionContext

	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once
}

// New creates an engine. evaluator and events may be nil.
func New(editor types.Editor, backend Backend, evaluator *eval.Evaluator, events *logger.EventLog, config Config) *Engine {
	return &Engine{
		editor:    editor,
		backend:   backend,
		evaluator: evaluator,
		events:    events,
		config:    config,
		eventChan: make(chan Event, 100),
	}
}

// Start launches the event loop.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)
	e.mu.Unlock()

	go e.eventLoop(e.mainCtx)
	logger.Info("engine started (model %s)", e.config.Model)
}

// Stop shuts the engine down and releases its resources.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.stopped = true
		if e.mainCancel != nil {
			e.mainCancel()
		}
		e.stopTextChangeTimer()
		// The event loop exits through mainCtx; the channel stays open so
		// late background results never hit a closed channel.
		logger.Info("engine stopped")
	})
}

func (e *Engine) eventLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event loop panic recovered: %v", r)
			e.eventLoop(e.mainCtx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.eventChan:
			if !ok {
				return
			}

			e.mu.Lock()
			stopped := e.stopped
			e.mu.Unlock()
			if stopped {
				return
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("event handler panic recovered for %v: %v", event.Type, r)
					}
				}()
				e.handleEvent(event)
			}()
		}
	}
}

func (e *Engine) handleEvent(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	logger.Debug("handle event: %v", event.Type)

	switch event.Type {
	case EventTextChanged:
		e.startTextChangeTimer()
	case EventTrigger:
		e.doTrigger()
	case EventCompletionReady:
		e.handleCompletionReady(event.Data.(*completionResult))
	case EventCompletionError:
		e.handleCompletionError(event.Data.(*completionFailure))
	case EventAccept:
		e.handleDecision(eval.ActionAccepted, "")
	case EventReject:
		e.handleDecision(eval.ActionRejected, event.reason())
	case EventDismiss:
		e.handleDecision(eval.ActionIgnored, "")
	}
}

// doTrigger captures a context snapshot synchronously and hands it to one
// background task. The caller is never blocked on the network.
func (e *Engine) doTrigger() {
	if e.stopped {
		return
	}

	source, cursor, err := e.editor.Snapshot()
	if err != nil {
		logger.Error("editor snapshot failed: %v", err)
		e.emit(logger.EventFailure, map[string]any{"stage": "snapshot", "error": err.Error()})
		return
	}

	prefix, suffix := text.SplitAtOffset(source, cursor)
	cctx := &types.CompletionContext{
		ID:           uuid.New().String(),
		Seq:          e.seq.Add(1),
		Source:       source,
		CursorOffset: cursor,
		Prefix:       utils.TrimPrefixToBudget(prefix, e.config.PrefixTokens),
		Suffix:       utils.TrimSuffixToBudget(suffix, e.config.SuffixTokens),
		Definition:   text.EnclosingDefinition(source, cursor),
		CapturedAt:   time.Now(),
	}

	e.emit(logger.EventFrontend, map[string]any{
		"stage":  "context",
		"id":     cctx.ID,
		"cursor": cctx.CursorOffset,
	})
	e.emit(logger.EventBackend, map[string]any{
		"stage": "dispatch",
		"id":    cctx.ID,
		"model": e.config.Model,
	})

	// No cancellation is sent to an already in-flight call; a stale result
	// is discarded on arrival by the sequence check instead.
	ctx, cancel := context.WithTimeout(e.mainCtx, e.config.CompletionTimeout)

	go func() {
		defer cancel()

		raw, err := e.backend.GenerateFillInMiddle(ctx, e.config.Model, cctx.Prefix, cctx.Suffix, cctx.Definition)
		if err != nil {
			e.post(Event{Type: EventCompletionError, Data: &completionFailure{ctx: cctx, err: err}})
			return
		}

		suggestion := &types.Suggestion{
			Text:      prompt.Normalize(raw),
			Model:     e.config.Model,
			ContextID: cctx.ID,
		}
		e.post(Event{Type: EventCompletionReady, Data: &completionResult{ctx: cctx, suggestion: suggestion}})
	}()
}

// post delivers an event from a background goroutine to the loop.
func (e *Engine) post(event Event) {
	select {
	case e.eventChan <- event:
	case <-e.mainCtx.Done():
	}
}

// handleCompletionReady finishes a request: superseded results are
// dropped, empty normalizations degrade to "no suggestion", and a live
// suggestion is applied with the cursor left where it was.
func (e *Engine) handleCompletionReady(result *completionResult) {
	if result.ctx.Seq != e.seq.Load() {
		// A newer trigger owns the pipeline; drop the stale result.
		logger.Debug("superseded result %s dropped", result.ctx.ID)
		e.emit(logger.EventFrontend, map[string]any{"stage": "superseded", "id": result.ctx.ID})
		return
	}

	e.emit(logger.EventBackend, map[string]any{
		"stage":  "response",
		"id":     result.ctx.ID,
		"length": len(result.suggestion.Text),
	})

	if result.suggestion.Text == "" {
		logger.Debug("empty suggestion for %s", result.ctx.ID)
		e.emit(logger.EventFrontend, map[string]any{"stage": "skip", "id": result.ctx.ID, "reason": "empty"})
		return
	}

	current, _, err := e.editor.Snapshot()
	if err != nil {
		logger.Error("editor snapshot failed before apply: %v", err)
		e.emit(logger.EventFailure, map[string]any{"stage": "apply", "id": result.ctx.ID, "error": err.Error()})
		return
	}

	offset, ok := text.MapOffset(result.ctx.Source, current, result.ctx.CursorOffset)
	if !ok {
		logger.Debug("buffer diverged, skipping apply for %s", result.ctx.ID)
		e.emit(logger.EventFrontend, map[string]any{"stage": "skip", "id": result.ctx.ID, "reason": "diverged"})
		return
	}

	if err := e.editor.Apply(offset, result.suggestion.Text); err != nil {
		logger.Error("apply failed: %v", err)
		e.emit(logger.EventFailure, map[string]any{"stage": "apply", "id": result.ctx.ID, "error": err.Error()})
		return
	}

	e.lastSuggestion = result.suggestion
	e.lastContext = result.ctx
	e.emit(logger.EventFrontend, map[string]any{
		"stage":  "apply",
		"id":     result.ctx.ID,
		"length": len(result.suggestion.Text),
	})
}

type completionFailure struct {
	ctx *types.CompletionContext
	err error
}

// handleCompletionError absorbs a failed request: every pipeline error is
// logged here and the pipeline stays ready for the next trigger; silence
// is the only user-visible symptom.
func (e *Engine) handleCompletionError(failure *completionFailure) {
	if failure.ctx.Seq != e.seq.Load() {
		logger.Debug("superseded failure %s dropped: %v", failure.ctx.ID, failure.err)
		return
	}

	if errors.Is(failure.err, context.Canceled) {
		logger.Debug("completion canceled: %v", failure.err)
		return
	}
	logger.Error("completion failed for %s: %v", failure.ctx.ID, failure.err)
	e.emit(logger.EventFailure, map[string]any{"stage": "generate", "id": failure.ctx.ID, "error": failure.err.Error()})
}

// handleDecision forwards the user's verdict on the last applied
// suggestion to the evaluator.
func (e *Engine) handleDecision(action eval.Action, reason string) {
	if e.lastSuggestion == nil || e.evaluator == nil {
		return
	}

	switch action {
	case eval.ActionAccepted:
		e.evaluator.RecordAccepted(e.lastSuggestion, e.lastContext)
	case eval.ActionRejected:
		e.evaluator.RecordRejected(e.lastSuggestion, e.lastContext, reason)
	case eval.ActionIgnored:
		e.evaluator.RecordIgnored(e.lastSuggestion, e.lastContext)
	}

	e.lastSuggestion = nil
	e.lastContext = nil
}

func (e *Engine) emit(kind logger.EventKind, detail map[string]any) {
	e.events.Emit(kind, detail)
}
