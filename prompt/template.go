// Package prompt builds fill-in-the-middle prompts from configurable
// templates and normalizes raw model output into insertable text.
package prompt

import "strings"

// ContextHeader prefixes context that the template itself did not place.
const ContextHeader = "### Context\n"

// Placeholder spellings recognized in templates. Named forms come in a
// spaced and an unspaced variant; positional forms map to the prefix,
// suffix and context arguments in that order.
var (
	prefixNames  = []string{"{{ .Prompt }}", "{{.Prompt}}"}
	suffixNames  = []string{"{{ .Suffix }}", "{{.Suffix}}"}
	contextNames = []string{"{{ .Context }}", "{{.Context}}"}
)

const (
	prefixPositional  = "{1}"
	suffixPositional  = "{2}"
	contextPositional = "{3}"
)

// Render resolves a template against the prefix, suffix and context of a
// completion request. Missing values must be passed as empty strings. An
// empty template renders to the empty string; callers treat that as "no
// template configured" and fail the request.
//
// Both placeholder syntaxes are substituted, so templates may use either
// or both redundantly. If the template never references the context in any
// spelling and the context is non-empty, the context is prepended under a
// fixed header so it is never silently dropped. Template content is
// trusted configuration; no escaping is performed.
func Render(template, prefix, suffix, context string) string {
	if template == "" {
		return ""
	}

	referencesContext := false
	for _, name := range contextNames {
		if strings.Contains(template, name) {
			referencesContext = true
			break
		}
	}
	if strings.Contains(template, contextPositional) {
		referencesContext = true
	}

	out := template
	for _, name := range prefixNames {
		out = strings.ReplaceAll(out, name, prefix)
	}
	for _, name := range suffixNames {
		out = strings.ReplaceAll(out, name, suffix)
	}
	for _, name := range contextNames {
		out = strings.ReplaceAll(out, name, context)
	}

	// Positional pass after the named pass so either syntax works.
	out = strings.ReplaceAll(out, prefixPositional, prefix)
	out = strings.ReplaceAll(out, suffixPositional, suffix)
	out = strings.ReplaceAll(out, contextPositional, context)

	if !referencesContext && context != "" {
		out = ContextHeader + context + "\n\n" + out
	}

	return out
}

// DefaultFIMTemplate is the built-in fallback used when neither the
// configuration nor the model supplies a template. The markers follow the
// codellama infill convention, which most local code models understand.
const DefaultFIMTemplate = "<PRE> {{ .Prompt }} <SUF>{{ .Suffix }} <MID>"
