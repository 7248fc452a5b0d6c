// Package trie holds the growable character trie behind the suggestion engine.
//
// Each node stores one character code, a usage frequency and a terminal flag.
// Words can be inserted and their learned frequency raised; nothing is ever
// removed except by dropping the whole trie. A Trie is not safe for concurrent
// mutation: callers serialize writers themselves.
package trie

import (
	"errors"
	"iter"
)

// MaxFrequency is the ceiling applied to frequencies at insertion time.
const MaxFrequency = 255

// ErrEmptyWord is returned when inserting a zero-length word.
var ErrEmptyWord = errors.New("trie: empty word")

// ReinforcePolicy selects how Reinforce treats the MaxFrequency ceiling.
type ReinforcePolicy int

const (
	// ReinforceUnbounded increments past MaxFrequency.
	ReinforceUnbounded ReinforcePolicy = iota
	// ReinforceSaturating stops incrementing at MaxFrequency.
	ReinforceSaturating
)

// Option configures a Trie.
type Option func(*Trie)

// WithReinforcePolicy sets the policy used by Reinforce.
func WithReinforcePolicy(p ReinforcePolicy) Option {
	return func(t *Trie) { t.policy = p }
}

// Trie is the root of a word trie.
type Trie struct {
	root   Node
	words  int
	nodes  int
	policy ReinforcePolicy
}

// New creates an empty trie.
func New(opts ...Option) *Trie {
	t := &Trie{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the sentinel root node.
func (t *Trie) Root() *Node { return &t.root }

// Len returns the number of distinct stored words.
func (t *Trie) Len() int { return t.words }

// NodeCount returns the number of nodes below the root.
func (t *Trie) NodeCount() int { return t.nodes }

// Policy returns the reinforcement policy.
func (t *Trie) Policy() ReinforcePolicy { return t.policy }

// Insert adds word with the given frequency. If the word already exists its
// frequency becomes the larger of the two, clamped to MaxFrequency.
func (t *Trie) Insert(word string, frequency int) error {
	return t.InsertRunes([]rune(word), frequency)
}

// InsertRunes is Insert for callers holding code points.
func (t *Trie) InsertRunes(word []rune, frequency int) error {
	if len(word) == 0 {
		return ErrEmptyWord
	}
	n := &t.root
	for _, c := range word {
		next := n.child(c)
		if next == nil {
			next = &Node{code: c}
			n.add(next)
			t.nodes++
		}
		n = next
	}
	if !n.terminal {
		n.terminal = true
		t.words++
	}
	n.frequency = clamp(max(n.frequency, frequency))
	return nil
}

// Frequency returns the stored frequency of word, or false if it is not stored.
func (t *Trie) Frequency(word string) (int, bool) {
	n := t.find(word)
	if n == nil {
		return 0, false
	}
	return n.frequency, true
}

// Reinforce raises the frequency of a stored word by one and returns the new
// value. Under ReinforceSaturating a word at MaxFrequency stays there.
func (t *Trie) Reinforce(word string) (int, bool) {
	n := t.find(word)
	if n == nil {
		return 0, false
	}
	if t.policy == ReinforceSaturating && n.frequency >= MaxFrequency {
		return n.frequency, true
	}
	n.frequency++
	return n.frequency, true
}

// Prime inserts every (word, frequency) pair. Empty words are skipped.
// It returns how many pairs were inserted.
func (t *Trie) Prime(pairs iter.Seq2[string, int]) (int, error) {
	count := 0
	for word, freq := range pairs {
		if err := t.Insert(word, freq); err != nil {
			if errors.Is(err, ErrEmptyWord) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// Walk visits stored words depth-first in insertion order until fn returns false.
func (t *Trie) Walk(fn func(word string, frequency int) bool) {
	buf := make([]rune, 0, 32)
	walk(&t.root, buf, fn)
}

func walk(n *Node, buf []rune, fn func(string, int) bool) bool {
	for _, c := range n.children {
		word := append(buf, c.code)
		if c.terminal && !fn(string(word), c.frequency) {
			return false
		}
		if !walk(c, word, fn) {
			return false
		}
	}
	return true
}

// Reset drops every node.
func (t *Trie) Reset() {
	t.root = Node{}
	t.words = 0
	t.nodes = 0
}

// find returns the terminal node spelling word, or nil.
func (t *Trie) find(word string) *Node {
	if word == "" {
		return nil
	}
	n := &t.root
	for _, c := range word {
		if n = n.child(c); n == nil {
			return nil
		}
	}
	if !n.terminal {
		return nil
	}
	return n
}

func clamp(freq int) int {
	if freq > MaxFrequency {
		return MaxFrequency
	}
	if freq < 0 {
		return 0
	}
	return freq
}
