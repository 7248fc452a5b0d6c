package utils

import (
	"unicode"
)

// IsWordRune reports whether r may appear inside a word: letters, digits,
// apostrophes and hyphens.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}

// IsValidInput reports whether s is worth searching for: non-empty, made of
// word runes, with at least one letter, and not a run of one repeated
// character.
func IsValidInput(s string) bool {
	if len(s) == 0 || IsRepetitive(s) {
		return false
	}
	letter := false
	for _, r := range s {
		if !IsWordRune(r) {
			return false
		}
		letter = letter || unicode.IsLetter(r)
	}
	return letter
}

// IsRepetitive reports whether s is one rune repeated three or more times.
func IsRepetitive(s string) bool {
	runes := []rune(s)
	if len(runes) <= 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}
