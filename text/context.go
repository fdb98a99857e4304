// Package text provides the buffer-side primitives of the completion
// pipeline: splitting source at the cursor, extracting the enclosing
// definition, and mapping insertion offsets across concurrent edits.
package text

import "strings"

// SplitAtOffset splits source into the text before and after the cursor.
// The offset is clamped into [0, len(source)].
func SplitAtOffset(source string, offset int) (prefix, suffix string) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	return source[:offset], source[offset:]
}

// EnclosingDefinition returns the source of the definition block the
// cursor sits in, or "" when the cursor is at top level. A definition is
// detected structurally: the nearest preceding line that is less indented
// than the cursor line and non-blank opens the block; the block runs until
// indentation falls back to the opener's level. This is a lightweight,
// language-agnostic approximation good enough to classify and to feed the
// prompt's context slot.
func EnclosingDefinition(source string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}

	lines := strings.Split(source, "\n")
	cursorLine := strings.Count(source[:offset], "\n")
	if cursorLine >= len(lines) {
		cursorLine = len(lines) - 1
	}

	cursorIndent := indentOf(lines[cursorLine])
	if cursorIndent == 0 {
		return ""
	}

	// Walk up to the nearest non-blank line less indented than the cursor.
	start := -1
	openIndent := 0
	for i := cursorLine - 1; i >= 0; i-- {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if indentOf(line) < cursorIndent {
			start = i
			openIndent = indentOf(line)
			break
		}
	}
	if start < 0 {
		return ""
	}

	// The block ends where indentation returns to the opener's level.
	end := len(lines)
	for i := cursorLine + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if indentOf(line) <= openIndent {
			end = i
			break
		}
	}

	return strings.Join(lines[start:end], "\n")
}

func indentOf(line string) int {
	indent := 0
	for _, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += 4
		default:
			return indent
		}
	}
	return indent
}
