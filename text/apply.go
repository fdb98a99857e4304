package text

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// guardWindow is how much of the original prefix must still precede the
// mapped offset for an insertion to be considered safe.
const guardWindow = 32

// MapOffset projects an insertion offset captured against original onto
// the current buffer text. It reports ok=false when the buffer has
// diverged incompatibly around the insertion point, in which case the
// caller must degrade to a no-op instead of corrupting the buffer.
//
// The projection runs a character diff between the two texts and maps the
// offset through it; the insertion is then only accepted if the tail of
// the original prefix still sits immediately before the mapped position.
// That keeps "completion arrives while the user kept typing ahead of the
// cursor" working while rejecting edits that rewrote the insertion site.
func MapOffset(original, current string, offset int) (int, bool) {
	if offset < 0 || offset > len(original) {
		return 0, false
	}
	if original == current {
		return offset, true
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, current, false)
	mapped := dmp.DiffXIndex(diffs, offset)
	if mapped < 0 || mapped > len(current) {
		return 0, false
	}

	guard := original[:offset]
	if len(guard) > guardWindow {
		guard = guard[len(guard)-guardWindow:]
	}
	if !strings.HasSuffix(current[:mapped], guard) {
		return 0, false
	}

	return mapped, true
}
