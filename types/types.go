// Package types holds the data model shared across the completion pipeline.
package types

import (
	"time"
	"unicode/utf8"
)

// CompletionContext is an immutable snapshot of editor state taken at the
// moment a completion was triggered. It is owned by the engine for the
// duration of a single request and never mutated after construction.
type CompletionContext struct {
	ID           string    // request id, carried through logs and evaluation
	Seq          uint64    // monotonic trigger sequence, used for supersession
	Source       string    // full buffer text at capture time
	CursorOffset int       // byte offset of the cursor within Source
	Prefix       string    // Source[:CursorOffset]
	Suffix       string    // Source[CursorOffset:]
	Definition   string    // enclosing definition source, may be empty
	CapturedAt   time.Time
}

// Suggestion is a cleaned completion ready for insertion.
type Suggestion struct {
	Text      string
	Model     string
	ContextID string
}

// Display returns a bounded form of the suggestion text for presentation,
// truncated to limit runes with an ellipsis marker. A non-positive limit
// disables truncation.
func (s *Suggestion) Display(limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s.Text) <= limit {
		return s.Text
	}
	runes := []rune(s.Text)
	return string(runes[:limit]) + "..."
}

// Editor is the boundary to the text editor the pipeline serves. Snapshot
// must be fast and must not block on anything but the editor RPC itself.
type Editor interface {
	// Snapshot returns the full buffer text and the cursor byte offset.
	Snapshot() (text string, cursor int, err error)

	// Apply inserts text at the given byte offset, leaving the caret where
	// it was before the insertion rather than at the end of the new text.
	Apply(offset int, text string) error
}
