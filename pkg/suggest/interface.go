package suggest

import "unicode/utf8"

// ISuggester is what the server and CLI need from a dictionary.
type ISuggester interface {
	// Suggest returns ranked words for the candidate rows, retrying with a
	// skip position when the plain search comes back short
	Suggest(codes [][]rune, ambiguous bool, nextLetters []int) (*Result, error)

	// AddWord stores a word with its frequency
	AddWord(word string, frequency int) error

	// Frequency looks up an exact word
	Frequency(word string) (int, bool)

	// Reinforce bumps the frequency of a stored word
	Reinforce(word string) (int, bool)

	// Stats returns statistics about the loaded words
	Stats() map[string]int
}

var _ ISuggester = (*Dictionary)(nil)

// Merge folds several results into one ranked list of at most limit words.
// A word found in more than one result keeps its best score.
func Merge(limit int, results ...*Result) []Suggestion {
	if limit <= 0 {
		return []Suggestion{}
	}
	maxLen := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, s := range r.Suggestions {
			maxLen = max(maxLen, utf8.RuneCountInString(s.Word))
		}
	}
	out := newRanked(limit, maxLen)
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, s := range r.Suggestions {
			out.addString(s.Word, utf8.RuneCountInString(s.Word), s.Score)
		}
	}
	return out.suggestions()
}
