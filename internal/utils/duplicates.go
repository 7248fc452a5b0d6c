package utils

import (
	"strings"
)

// SuggestionFilter drops words already seen, ignoring case. It is not safe
// for concurrent use.
type SuggestionFilter struct {
	seenWords map[string]bool
}

// NewSuggestionFilter creates a filter that also rejects the given words.
func NewSuggestionFilter(exclude ...string) *SuggestionFilter {
	seen := make(map[string]bool, len(exclude))
	for _, w := range exclude {
		seen[strings.ToLower(w)] = true
	}
	return &SuggestionFilter{seenWords: seen}
}

// ShouldInclude reports whether word is new and records it.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	lower := strings.ToLower(word)
	if f.seenWords[lower] {
		return false
	}
	f.seenWords[lower] = true
	return true
}
