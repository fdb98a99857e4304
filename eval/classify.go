package eval

import (
	"strings"

	"github.com/pharo-llm/pharo-copilot/types"
)

// Category is a coarse syntactic classification of the code surrounding a
// suggestion, used to bucket evaluation statistics.
type Category string

const (
	CategoryClassDefinition  Category = "class-definition"
	CategoryMethodDefinition Category = "method-definition"
	CategoryReturnStatement  Category = "return-statement"
	CategoryAssignment       Category = "assignment"
	CategoryIteration        Category = "iteration"
	CategoryConditional      Category = "conditional"
	CategoryOther            Category = "other"
)

// probe matches one category against a single trimmed line.
type probe struct {
	category Category
	match    func(line string) bool
}

// probes are applied in order; the first category with any matching line
// wins. The patterns are deliberately host-language-agnostic: they cover
// the keyword shapes of the languages the normalizer knows about.
var probes = []probe{
	{CategoryClassDefinition, func(l string) bool {
		return strings.HasPrefix(l, "class ") ||
			strings.Contains(l, "subclass:") ||
			(strings.HasPrefix(l, "type ") && (strings.Contains(l, "struct") || strings.Contains(l, "interface")))
	}},
	{CategoryMethodDefinition, func(l string) bool {
		return strings.HasPrefix(l, "func ") ||
			strings.HasPrefix(l, "def ") ||
			strings.HasPrefix(l, "function ") ||
			strings.HasPrefix(l, "fn ")
	}},
	{CategoryReturnStatement, func(l string) bool {
		return strings.HasPrefix(l, "return") || strings.HasPrefix(l, "^")
	}},
	{CategoryAssignment, func(l string) bool {
		return strings.Contains(l, ":=") || containsPlainAssign(l)
	}},
	{CategoryIteration, func(l string) bool {
		return strings.HasPrefix(l, "for ") ||
			strings.HasPrefix(l, "while ") ||
			strings.Contains(l, "do:") ||
			strings.Contains(l, ".forEach")
	}},
	{CategoryConditional, func(l string) bool {
		return strings.HasPrefix(l, "if ") ||
			strings.HasPrefix(l, "switch ") ||
			strings.HasPrefix(l, "case ") ||
			strings.Contains(l, "ifTrue:") ||
			strings.Contains(l, "ifFalse:")
	}},
}

// ClassifyContext classifies the code surrounding a completion. The
// enclosing definition is preferred; without one the text before the
// cursor is probed.
func ClassifyContext(ctx *types.CompletionContext) Category {
	if ctx == nil {
		return CategoryOther
	}
	return Classify(classificationText(ctx))
}

// Classify runs the ordered probes over the lines of the given source
// text. The first matching category wins; "other" is the fallback.
func Classify(source string) Category {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	for _, p := range probes {
		for _, line := range lines {
			if line == "" {
				continue
			}
			if p.match(line) {
				return p.category
			}
		}
	}
	return CategoryOther
}

func classificationText(ctx *types.CompletionContext) string {
	if ctx == nil {
		return ""
	}
	if ctx.Definition != "" {
		return ctx.Definition
	}
	return ctx.Prefix
}

// containsPlainAssign detects "x = y" style assignment while ignoring
// comparison operators.
func containsPlainAssign(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != '=' {
			continue
		}
		prev := byte(0)
		if i > 0 {
			prev = line[i-1]
		}
		next := byte(0)
		if i+1 < len(line) {
			next = line[i+1]
		}
		if prev == '=' || prev == '!' || prev == '<' || prev == '>' || prev == ':' {
			continue
		}
		if next == '=' {
			i++ // skip "=="
			continue
		}
		return true
	}
	return false
}
