package eval

import (
	"fmt"
	"testing"

	"github.com/pharo-llm/pharo-copilot/assert"
	"github.com/pharo-llm/pharo-copilot/types"
)

func testSuggestion(text string) *types.Suggestion {
	return &types.Suggestion{Text: text, Model: "codellama:7b", ContextID: "ctx-1"}
}

func testContext(prefix string) *types.CompletionContext {
	return &types.CompletionContext{ID: "ctx-1", Prefix: prefix}
}

func TestAcceptanceRateEmpty(t *testing.T) {
	e := New(nil, nil)
	assert.Equal(t, 0, e.AcceptanceRate(), "rate with no entries")
}

func TestAcceptanceRateRounds(t *testing.T) {
	e := New(nil, nil)
	e.RecordAccepted(testSuggestion("a"), testContext(""))
	e.RecordAccepted(testSuggestion("b"), testContext(""))
	e.RecordRejected(testSuggestion("c"), testContext(""), "not wanted")

	// 2 of 3 accepted rounds to 67.
	assert.Equal(t, 67, e.AcceptanceRate(), "rounded rate")
}

func TestStatsBreakdowns(t *testing.T) {
	e := New(nil, nil)
	e.RecordAccepted(testSuggestion("short"), testContext("x := 1"))
	e.RecordRejected(testSuggestion("short too"), testContext("^ self"), "noise")
	e.RecordIgnored(testSuggestion("short three"), testContext(""))

	stats := e.Stats()
	assert.Equal(t, 3, stats.Total, "total")
	assert.Equal(t, 1, stats.Accepted, "accepted")
	assert.Equal(t, 1, stats.Rejected, "rejected")
	assert.Equal(t, 1, stats.Ignored, "ignored")
	assert.Equal(t, 3, stats.PerModel["codellama:7b"], "per model")
	assert.Equal(t, 1, stats.PerCategory[CategoryAssignment], "assignment context")
	assert.Equal(t, 1, stats.PerCategory[CategoryReturnStatement], "return context")
	assert.Equal(t, 1, stats.PerCategory[CategoryOther], "other context")
	assert.Equal(t, 3, stats.PerLengthBucket["short"], "length bucket")
}

func TestLengthBuckets(t *testing.T) {
	tests := []struct {
		length   int
		expected string
	}{
		{0, "short"},
		{24, "short"},
		{25, "medium"},
		{99, "medium"},
		{100, "long"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("len %d", tt.length), func(t *testing.T) {
			assert.Equal(t, tt.expected, lengthBucket(tt.length), "bucket")
		})
	}
}

func TestListenersReceiveEvents(t *testing.T) {
	e := New(nil, nil)
	var received []Event
	e.RegisterListener(func(ev Event) {
		received = append(received, ev)
	})

	e.RecordAccepted(testSuggestion("hello"), testContext(""))
	e.RecordRejected(testSuggestion("world"), testContext(""), "reason")

	assert.Equal(t, 2, len(received), "event count")
	assert.Equal(t, ActionAccepted, received[0].Action, "first action")
	assert.Equal(t, "hello", received[0].Entry.Suggestion, "first suggestion")
	assert.Equal(t, ActionRejected, received[1].Action, "second action")
	assert.Equal(t, "reason", received[1].Entry.Reason, "rejection reason")
}

func TestPanickingListenerContained(t *testing.T) {
	e := New(nil, nil)
	e.RegisterListener(func(Event) { panic("bad listener") })
	calls := 0
	e.RegisterListener(func(Event) { calls++ })

	e.RecordAccepted(testSuggestion("a"), testContext(""))

	assert.Equal(t, 1, calls, "later listeners still invoked")
	assert.Equal(t, 1, e.Stats().Total, "recording unaffected")
}

func TestReset(t *testing.T) {
	e := New(nil, nil)
	e.RecordAccepted(testSuggestion("a"), testContext(""))
	e.Reset()

	assert.Equal(t, 0, e.Stats().Total, "stats cleared")
	assert.Equal(t, 0, len(e.Entries()), "entries cleared")
	assert.Equal(t, 0, e.AcceptanceRate(), "rate back to zero")
}

func TestEntriesAreCopies(t *testing.T) {
	e := New(nil, nil)
	e.RecordAccepted(testSuggestion("a"), testContext(""))

	entries := e.Entries()
	entries[0].Suggestion = "mutated"
	assert.Equal(t, "a", e.Entries()[0].Suggestion, "internal log unaffected")
}

func TestExcerptFlattensAndTruncates(t *testing.T) {
	assert.Equal(t, "a b c", excerpt("a\nb\tc"), "whitespace flattened")

	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	assert.Equal(t, contextExcerptLen, len(excerpt(long)), "fixed excerpt length")
}

func TestMetaCopiedOntoEntries(t *testing.T) {
	e := New(nil, map[string]string{"device_id": "d-1"})
	e.RecordAccepted(testSuggestion("a"), testContext(""))

	assert.Equal(t, "d-1", e.Entries()[0].Meta["device_id"], "meta on entry")
}

func TestMetaSnapshotAtConstruction(t *testing.T) {
	meta := map[string]string{"device_id": "d-1"}
	e := New(nil, meta)
	meta["device_id"] = "mutated"

	e.RecordAccepted(testSuggestion("a"), testContext(""))

	assert.Equal(t, "d-1", e.Entries()[0].Meta["device_id"], "caller mutation cannot reach entries")
}
