package prompt

import "strings"

const fence = "```"

// knownLanguages are names the normalizer treats as fence language tags.
var knownLanguages = map[string]bool{
	"smalltalk": true, "pharo": true, "python": true, "go": true,
	"golang": true, "javascript": true, "typescript": true, "java": true,
	"c": true, "cpp": true, "c++": true, "ruby": true, "rust": true,
	"haskell": true, "lisp": true, "shell": true, "bash": true,
	"sql": true, "html": true, "css": true, "json": true, "xml": true,
	"yaml": true, "markdown": true, "text": true,
}

// Normalize strips markdown fencing and trailing noise from raw model
// output, returning plain insertable text. It is pure and never fails:
// empty or unparsable input degrades to the empty string.
func Normalize(raw string) string {
	start := strings.Index(raw, fence)
	if start < 0 {
		// Unfenced output: the model sometimes appends commentary after a
		// paragraph break; keep only the first paragraph.
		if cut := strings.Index(raw, "\n\n"); cut >= 0 {
			raw = raw[:cut]
		}
		return strings.TrimSpace(raw)
	}

	body := raw[start+len(fence):]
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}

	// Drop a leading language specifier line, e.g. "smalltalk" or "c++".
	if nl := strings.Index(body, "\n"); nl >= 0 {
		first := strings.TrimSpace(body[:nl])
		if isLanguageTag(first) {
			body = body[nl+1:]
		}
	}

	return strings.TrimSpace(body)
}

// isLanguageTag reports whether a fence header line looks like a language
// name: either a known name or a single token of letters, digits and #+-_.
func isLanguageTag(line string) bool {
	if knownLanguages[strings.ToLower(line)] {
		return true
	}
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '#' || r == '+' || r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
