package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Case is the capitalisation pattern of typed input.
type Case int

const (
	CaseLower Case = iota
	CaseTitle      // first letter upper
	CaseUpper      // every letter upper, two or more letters
)

// CaseOf classifies the capitalisation of typed.
func CaseOf(typed string) Case {
	letters, upper := 0, 0
	first := false
	for i, r := range typed {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
			if i == 0 {
				first = true
			}
		}
	}
	switch {
	case letters > 1 && upper == letters:
		return CaseUpper
	case first:
		return CaseTitle
	default:
		return CaseLower
	}
}

// ApplyCase rewrites a suggestion to follow the typed capitalisation. Lower
// case input leaves the stored spelling alone so proper nouns keep their
// capitals.
func ApplyCase(word string, c Case) string {
	switch c {
	case CaseUpper:
		return strings.ToUpper(word)
	case CaseTitle:
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			return word
		}
		return string(unicode.ToUpper(r)) + word[size:]
	default:
		return word
	}
}
