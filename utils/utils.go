// Package utils holds token estimation helpers used to bound how much
// surrounding code is sent to the inference server.
package utils

import "strings"

// AvgCharsPerToken is a rough estimation: 1 token ≈ 4 characters.
const AvgCharsPerToken = 4

// EstimateTokens estimates the number of tokens in s.
func EstimateTokens(s string) int {
	return (len(s) + AvgCharsPerToken - 1) / AvgCharsPerToken
}

// EstimateCharsFromTokens estimates the character budget for a token count.
func EstimateCharsFromTokens(tokens int) int {
	return tokens * AvgCharsPerToken
}

// TrimPrefixToBudget trims a cursor prefix to roughly maxTokens, keeping
// the tail since the text nearest the cursor matters most. The cut snaps
// forward to the next line start so the model never sees a torn line.
// maxTokens <= 0 disables trimming.
func TrimPrefixToBudget(prefix string, maxTokens int) string {
	if maxTokens <= 0 {
		return prefix
	}
	maxChars := EstimateCharsFromTokens(maxTokens)
	if len(prefix) <= maxChars {
		return prefix
	}

	cut := len(prefix) - maxChars
	if nl := strings.IndexByte(prefix[cut:], '\n'); nl >= 0 {
		cut += nl + 1
	}
	return prefix[cut:]
}

// TrimSuffixToBudget trims a cursor suffix to roughly maxTokens, keeping
// the head. The cut snaps back to the previous line end.
// maxTokens <= 0 disables trimming.
func TrimSuffixToBudget(suffix string, maxTokens int) string {
	if maxTokens <= 0 {
		return suffix
	}
	maxChars := EstimateCharsFromTokens(maxTokens)
	if len(suffix) <= maxChars {
		return suffix
	}

	cut := maxChars
	if nl := strings.LastIndexByte(suffix[:cut], '\n'); nl >= 0 {
		cut = nl
	}
	return suffix[:cut]
}
