package suggest

import (
	"errors"
	"fmt"
)

// MaxWordLengthLimit bounds Query.MaxWordLength. Scores double per matched
// position, so the limit also keeps them inside an int.
const MaxWordLengthLimit = 48

// ErrInvalidQuery is wrapped by every query validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// NoSkip disables the skip position.
const NoSkip = -1

// Query describes one suggestion search.
type Query struct {
	// Codes holds one row of candidate characters per typed position, most
	// likely first. A zero rune ends a row early.
	Codes [][]rune
	// SkipPos is the trie depth passed through without matching, or NoSkip.
	SkipPos int
	// MaxWordLength is the longest word that may be returned.
	MaxWordLength int
	// MaxWords is the capacity of the ranked result.
	MaxWords int
	// MaxAlternatives caps how many entries of each row are considered.
	MaxAlternatives int
	// Ambiguous selects keypad matching: no first-alternative bonus and no
	// depth cutoff.
	Ambiguous bool
	// NextLetters, when non-nil, counts the character that follows the typed
	// input in each completed word. Indexed by code point.
	NextLetters []int
}

func (q *Query) validate() error {
	if q.MaxWords <= 0 {
		return fmt.Errorf("%w: max words %d", ErrInvalidQuery, q.MaxWords)
	}
	if q.MaxWordLength <= 0 || q.MaxWordLength > MaxWordLengthLimit {
		return fmt.Errorf("%w: max word length %d (1..%d)", ErrInvalidQuery, q.MaxWordLength, MaxWordLengthLimit)
	}
	if q.MaxAlternatives <= 0 {
		return fmt.Errorf("%w: max alternatives %d", ErrInvalidQuery, q.MaxAlternatives)
	}
	if q.SkipPos >= len(q.Codes) {
		return fmt.Errorf("%w: skip position %d beyond %d rows", ErrInvalidQuery, q.SkipPos, len(q.Codes))
	}
	return nil
}

// rows trims every row at its sentinel and at MaxAlternatives.
func (q *Query) rows() [][]rune {
	rows := make([][]rune, len(q.Codes))
	for i, row := range q.Codes {
		n := 0
		for n < len(row) && n < q.MaxAlternatives && row[n] != 0 {
			n++
		}
		rows[i] = row[:n]
	}
	return rows
}

// Result is the ranked output of a search.
type Result struct {
	Suggestions []Suggestion
}

// Count returns the number of suggestions.
func (r *Result) Count() int { return len(r.Suggestions) }

// Words returns the suggested words in rank order.
func (r *Result) Words() []string {
	words := make([]string, len(r.Suggestions))
	for i, s := range r.Suggestions {
		words[i] = s.Word
	}
	return words
}

// Frequencies returns the scores in rank order.
func (r *Result) Frequencies() []int {
	scores := make([]int, len(r.Suggestions))
	for i, s := range r.Suggestions {
		scores[i] = s.Score
	}
	return scores
}
