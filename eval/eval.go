// Package eval records accept/reject/ignore decisions about suggestions
// and aggregates them into session statistics.
package eval

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharo-llm/pharo-copilot/logger"
	"github.com/pharo-llm/pharo-copilot/types"
)

// Action is the user decision recorded for one suggestion.
type Action string

const (
	ActionAccepted Action = "accepted"
	ActionRejected Action = "rejected"
	ActionIgnored  Action = "ignored"
)

// contextExcerptLen is the fixed length of the context excerpt kept on an
// entry and written to the CSV export.
const contextExcerptLen = 40

// Entry is one append-only record per user decision.
type Entry struct {
	ID             string
	Timestamp      time.Time
	Action         Action
	Suggestion     string
	Category       Category
	ContextExcerpt string
	Model          string
	Length         int
	Reason         string
	Meta           map[string]string
}

// SessionStats is a pure reduction over the entry log, maintained
// incrementally as entries are appended.
type SessionStats struct {
	Total           int
	Accepted        int
	Rejected        int
	Ignored         int
	PerModel        map[string]int
	PerCategory     map[Category]int
	PerLengthBucket map[string]int
}

func newSessionStats() SessionStats {
	return SessionStats{
		PerModel:        make(map[string]int),
		PerCategory:     make(map[Category]int),
		PerLengthBucket: make(map[string]int),
	}
}

func (s SessionStats) clone() SessionStats {
	out := s
	out.PerModel = make(map[string]int, len(s.PerModel))
	for k, v := range s.PerModel {
		out.PerModel[k] = v
	}
	out.PerCategory = make(map[Category]int, len(s.PerCategory))
	for k, v := range s.PerCategory {
		out.PerCategory[k] = v
	}
	out.PerLengthBucket = make(map[string]int, len(s.PerLengthBucket))
	for k, v := range s.PerLengthBucket {
		out.PerLengthBucket[k] = v
	}
	return out
}

// Event is the broadcast payload sent to registered listeners.
type Event struct {
	Action Action
	Entry  Entry
}

// Listener receives evaluation events. Listener failures are contained at
// the publish boundary and cannot affect recording.
type Listener func(Event)

// Evaluator serializes concurrent appends to the entry log with a single
// writer lock so the derived statistics stay consistent.
type Evaluator struct {
	mu        sync.Mutex
	entries   []Entry
	stats     SessionStats
	listeners []Listener
	events    *logger.EventLog
	meta      map[string]string
}

// New creates an evaluator. events may be nil when no persistent event
// log is wanted; meta (device id, session id) is snapshotted here and
// attached to every entry, so later mutation of the caller's map cannot
// reach recorded entries.
func New(events *logger.EventLog, meta map[string]string) *Evaluator {
	copied := make(map[string]string, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return &Evaluator{
		stats:  newSessionStats(),
		events: events,
		meta:   copied,
	}
}

// RegisterListener adds an observer for evaluation events.
func (e *Evaluator) RegisterListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// RecordAccepted appends an accepted entry for the suggestion.
func (e *Evaluator) RecordAccepted(s *types.Suggestion, ctx *types.CompletionContext) {
	e.record(ActionAccepted, s, ctx, "")
}

// RecordRejected appends a rejected entry with an optional reason.
func (e *Evaluator) RecordRejected(s *types.Suggestion, ctx *types.CompletionContext, reason string) {
	e.record(ActionRejected, s, ctx, reason)
}

// RecordIgnored appends an ignored entry (dismissed without action).
func (e *Evaluator) RecordIgnored(s *types.Suggestion, ctx *types.CompletionContext) {
	e.record(ActionIgnored, s, ctx, "")
}

func (e *Evaluator) record(action Action, s *types.Suggestion, ctx *types.CompletionContext, reason string) {
	entry := Entry{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Action:         action,
		Suggestion:     s.Text,
		Category:       ClassifyContext(ctx),
		ContextExcerpt: excerpt(classificationText(ctx)),
		Model:          s.Model,
		Length:         len(s.Text),
		Reason:         reason,
		Meta:           e.meta,
	}

	e.mu.Lock()
	e.entries = append(e.entries, entry)
	e.stats.Total++
	switch action {
	case ActionAccepted:
		e.stats.Accepted++
	case ActionRejected:
		e.stats.Rejected++
	case ActionIgnored:
		e.stats.Ignored++
	}
	e.stats.PerModel[entry.Model]++
	e.stats.PerCategory[entry.Category]++
	e.stats.PerLengthBucket[lengthBucket(entry.Length)]++
	listeners := append([]Listener{}, e.listeners...)
	e.mu.Unlock()

	e.events.Emit(logger.EventFrontend, map[string]any{
		"action":     string(action),
		"suggestion": entry.Suggestion,
		"context":    entry.ContextExcerpt,
		"model":      entry.Model,
		"category":   string(entry.Category),
		"length":     entry.Length,
		"reason":     reason,
	})

	event := Event{Action: action, Entry: entry}
	for _, l := range listeners {
		publish(l, event)
	}
}

// publish invokes one listener, containing panics so a bad listener can
// never break recording.
func publish(l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("evaluation listener panicked: %v", r)
		}
	}()
	l(event)
}

// AcceptanceRate returns round(100 * accepted / total), and 0 when no
// suggestions have been recorded.
func (e *Evaluator) AcceptanceRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stats.Total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(e.stats.Accepted) / float64(e.stats.Total)))
}

// Stats returns a copy of the current session statistics.
func (e *Evaluator) Stats() SessionStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.clone()
}

// Entries returns a copy of the entry log in recording order.
func (e *Evaluator) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Entry{}, e.entries...)
}

// Reset clears entries and statistics atomically.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
	e.stats = newSessionStats()
}

// lengthBucket groups suggestion lengths for the cohort breakdown.
func lengthBucket(length int) string {
	switch {
	case length < 25:
		return "short"
	case length < 100:
		return "medium"
	default:
		return "long"
	}
}

// excerpt flattens the context text to one line of fixed length.
func excerpt(s string) string {
	flat := make([]rune, 0, contextExcerptLen)
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		flat = append(flat, r)
		if len(flat) == contextExcerptLen {
			break
		}
	}
	return string(flat)
}
