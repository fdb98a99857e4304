package text

import (
	"strings"
	"testing"

	"github.com/pharo-llm/pharo-copilot/assert"
)

func TestMapOffsetUnchangedBuffer(t *testing.T) {
	offset, ok := MapOffset("hello world", "hello world", 5)
	assert.True(t, ok, "unchanged buffer maps")
	assert.Equal(t, 5, offset, "offset unchanged")
}

func TestMapOffsetTypedAhead(t *testing.T) {
	// The user kept typing at the cursor while the request was in flight.
	original := "x := sel"
	current := "x := self fo"
	offset, ok := MapOffset(original, current, len(original))
	assert.True(t, ok, "typed-ahead buffer maps")
	assert.True(t, offset >= len(original), "offset moved forward")
	assert.Equal(t, "x := sel", current[:len(original)], "original prefix intact")
}

func TestMapOffsetEditBeforeCursor(t *testing.T) {
	// An insertion well before the cursor shifts the offset without
	// disturbing the insertion site.
	original := strings.Repeat("setUp\n\tself reset.\n", 4) + "tearDown\n\t"
	current := "\"header comment\"\n" + original
	offset, ok := MapOffset(original, current, len(original))
	assert.True(t, ok, "shifted buffer maps")
	assert.Equal(t, len(current), offset, "offset shifted by insertion")
}

func TestMapOffsetRewrittenSite(t *testing.T) {
	// The text around the insertion point was rewritten; applying would
	// corrupt the buffer.
	original := "total := price * quantity"
	current := "sum := cost times: count"
	_, ok := MapOffset(original, current, len(original))
	assert.False(t, ok, "rewritten site rejected")
}

func TestMapOffsetOutOfRange(t *testing.T) {
	_, ok := MapOffset("abc", "abc", -1)
	assert.False(t, ok, "negative offset rejected")
	_, ok = MapOffset("abc", "abc", 4)
	assert.False(t, ok, "offset past end rejected")
}

func TestMapOffsetEmptyOriginal(t *testing.T) {
	offset, ok := MapOffset("", "", 0)
	assert.True(t, ok, "empty buffers map")
	assert.Equal(t, 0, offset, "offset zero")
}
