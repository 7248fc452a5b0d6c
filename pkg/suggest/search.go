// Package suggest implements the approximate-match search over a word trie.
//
// A search walks the trie and the typed input in lock-step. Every input
// position carries a row of candidate characters, so ambiguous keypads and
// nearby-key corrections are matched the same way. Once the input runs out the
// walk switches to completion and offers every word below the matched prefix.
// Results land in a bounded buffer ranked by frequency times match weight.
package suggest

import (
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/smartdict/pkg/trie"
)

// mode is the traversal phase of the search.
type mode int

const (
	// modeMatching consumes one input row per trie level.
	modeMatching mode = iota
	// modeCompletion accepts every remaining path.
	modeCompletion
)

// defaultTransparent are trie characters the matcher may step over, so that
// "dont" still reaches "don't".
var defaultTransparent = []rune{'\''}

// SearchOption adjusts a single search.
type SearchOption func(*searcher)

// WithTransparent replaces the set of characters that are passed through when
// the typed row does not ask for them.
func WithTransparent(runes ...rune) SearchOption {
	return func(s *searcher) { s.transparent = runes }
}

type searcher struct {
	rows        [][]rune
	inputLen    int
	skipPos     int
	ambiguous   bool
	maxDepth    int
	maxWordLen  int
	nextLetters []int
	transparent []rune
	word        []rune
	out         *ranked
	added       int
}

// Search runs q against t and returns the ranked suggestions.
// The trie is only read.
func Search(t *trie.Trie, q Query, opts ...SearchOption) (*Result, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	out := newRanked(q.MaxWords, q.MaxWordLength)
	searchInto(t, &q, out, opts...)
	return &Result{Suggestions: out.suggestions()}, nil
}

// searchInto runs a validated query into an existing buffer and returns how
// many times the buffer changed.
func searchInto(t *trie.Trie, q *Query, out *ranked, opts ...SearchOption) int {
	s := &searcher{
		rows:        q.rows(),
		inputLen:    len(q.Codes),
		skipPos:     q.SkipPos,
		ambiguous:   q.Ambiguous,
		maxDepth:    len(q.Codes) * 3,
		maxWordLen:  q.MaxWordLength,
		nextLetters: q.NextLetters,
		transparent: defaultTransparent,
		word:        make([]rune, q.MaxWordLength),
		out:         out,
	}
	if s.skipPos < 0 {
		s.skipPos = NoSkip
	}
	for _, opt := range opts {
		opt(s)
	}
	s.visit(t.Root(), 0, modeMatching, 1, 0)
	return s.added
}

func (s *searcher) visit(parent *trie.Node, depth int, m mode, weight, input int) {
	if !s.ambiguous && depth > s.maxDepth {
		return
	}
	if depth >= s.maxWordLen {
		return
	}
	if m == modeCompletion || input >= s.inputLen {
		s.complete(parent, depth, weight)
		return
	}
	s.match(parent, depth, weight, input)
}

// complete offers every word below parent.
func (s *searcher) complete(parent *trie.Node, depth, weight int) {
	for _, child := range parent.Children() {
		s.word[depth] = child.Code()
		if child.Terminal() {
			s.commit(depth, child.Frequency()*weight)
			if depth >= s.inputLen && s.skipPos == NoSkip {
				s.registerNextLetter(s.word[s.inputLen])
			}
		}
		if child.HasChildren() {
			s.visit(child, depth+1, modeCompletion, weight, s.inputLen)
		}
	}
}

// match consumes the row at input against each child of parent.
func (s *searcher) match(parent *trie.Node, depth, weight, input int) {
	row := s.rows[input]
	for _, child := range parent.Children() {
		c := child.Code()
		s.word[depth] = c

		if s.passThrough(c, row) {
			if child.HasChildren() {
				s.visit(child, depth+1, modeMatching, weight, input)
			}
			continue
		}

		if depth == s.skipPos {
			// omitted letter: the child is extra, the row stays
			if child.HasChildren() {
				s.visit(child, depth+1, modeMatching, weight, input)
			}
			// mistyped letter: the child replaces the row
			s.advance(child, depth, weight, input)
			continue
		}

		lower := toLower(c)
		for j, alt := range row {
			if alt != lower && alt != c {
				continue
			}
			bonus := 1
			if !s.ambiguous && j == 0 {
				bonus = 2
			}
			s.advance(child, depth, weight*bonus, input)
			if s.skipPos != NoSkip {
				break
			}
		}
	}
}

// advance moves past input after child matched it.
func (s *searcher) advance(child *trie.Node, depth, weight, input int) {
	if input+1 == s.inputLen {
		if child.Terminal() {
			score := child.Frequency() * weight
			if s.skipPos == NoSkip {
				score *= 2
			}
			s.commit(depth, score)
		}
		if child.HasChildren() {
			s.visit(child, depth+1, modeCompletion, weight, input+1)
		}
		return
	}
	if child.HasChildren() {
		s.visit(child, depth+1, modeMatching, weight, input+1)
	}
}

func (s *searcher) passThrough(c rune, row []rune) bool {
	if !slices.Contains(s.transparent, c) {
		return false
	}
	return len(row) == 0 || row[0] != c
}

func (s *searcher) commit(depth, score int) {
	if s.out.add(s.word[:depth+1], score) {
		s.added++
	}
}

func (s *searcher) registerNextLetter(c rune) {
	if c >= 0 && int(c) < len(s.nextLetters) {
		s.nextLetters[c]++
	}
}

// toLower folds ASCII directly and falls back to simple Unicode lower-casing.
func toLower(c rune) rune {
	if c < utf8.RuneSelf {
		if 'A' <= c && c <= 'Z' {
			return c + 'a' - 'A'
		}
		return c
	}
	return unicode.ToLower(c)
}
