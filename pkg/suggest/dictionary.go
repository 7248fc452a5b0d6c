package suggest

import (
	"errors"
	"iter"
	"sync"

	"github.com/bastiangx/smartdict/pkg/trie"
)

// ErrClosed is returned by operations on a closed Dictionary.
var ErrClosed = errors.New("dictionary closed")

// Settings are the per-dictionary search bounds.
type Settings struct {
	MaxWords           int
	MaxWordLength      int
	MaxAlternatives    int
	Transparent        []rune
	FallbackThreshold  int
	ReinforceSaturates bool
}

// DefaultSettings mirrors the bounds used by keyboard dictionaries.
func DefaultSettings() Settings {
	return Settings{
		MaxWords:          16,
		MaxWordLength:     MaxWordLengthLimit,
		MaxAlternatives:   16,
		Transparent:       []rune{'\''},
		FallbackThreshold: 5,
	}
}

// Dictionary is a named, learnable word list with its own trie.
// Reads may run concurrently; writes take the lock exclusively.
type Dictionary struct {
	name     string
	settings Settings
	trie     *trie.Trie
	closed   bool
	mu       sync.RWMutex
}

// NewDictionary creates an empty dictionary.
func NewDictionary(name string, settings Settings) *Dictionary {
	policy := trie.ReinforceUnbounded
	if settings.ReinforceSaturates {
		policy = trie.ReinforceSaturating
	}
	return &Dictionary{
		name:     name,
		settings: settings,
		trie:     trie.New(trie.WithReinforcePolicy(policy)),
	}
}

// Name returns the dictionary name.
func (d *Dictionary) Name() string { return d.name }

// Settings returns the bounds the dictionary searches with.
func (d *Dictionary) Settings() Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settings
}

// SetSettings replaces the search bounds. The reinforcement policy is fixed
// at creation.
func (d *Dictionary) SetSettings(settings Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settings = settings
}

// AddWord stores word with the given frequency.
func (d *Dictionary) AddWord(word string, frequency int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.trie.Insert(word, frequency)
}

// Prime bulk-loads (word, frequency) pairs.
func (d *Dictionary) Prime(pairs iter.Seq2[string, int]) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	return d.trie.Prime(pairs)
}

// Reload drops every stored word and primes the dictionary from pairs.
func (d *Dictionary) Reload(pairs iter.Seq2[string, int]) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	d.trie.Reset()
	return d.trie.Prime(pairs)
}

// Frequency returns the stored frequency of word.
func (d *Dictionary) Frequency(word string) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return 0, false
	}
	return d.trie.Frequency(word)
}

// Reinforce raises the frequency of a stored word by one.
func (d *Dictionary) Reinforce(word string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, false
	}
	return d.trie.Reinforce(word)
}

// Query builds a query with the dictionary bounds.
func (d *Dictionary) Query(codes [][]rune, ambiguous bool, skipPos int, nextLetters []int) Query {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.query(codes, ambiguous, skipPos, nextLetters)
}

func (d *Dictionary) query(codes [][]rune, ambiguous bool, skipPos int, nextLetters []int) Query {
	return Query{
		Codes:           codes,
		SkipPos:         skipPos,
		MaxWordLength:   d.settings.MaxWordLength,
		MaxWords:        d.settings.MaxWords,
		MaxAlternatives: d.settings.MaxAlternatives,
		Ambiguous:       ambiguous,
		NextLetters:     nextLetters,
	}
}

// Search runs q against the dictionary.
func (d *Dictionary) Search(q Query) (*Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	return Search(d.trie, q, d.searchOptions()...)
}

// Suggest searches codes and, when fewer than FallbackThreshold words come
// back, retries with each skip position in turn until one of them adds
// something. Skip passes share the ranked buffer with the plain pass.
func (d *Dictionary) Suggest(codes [][]rune, ambiguous bool, nextLetters []int) (*Result, error) {
	return d.SuggestN(codes, ambiguous, nextLetters, 0)
}

// SuggestN is Suggest returning at most limit words. A limit <= 0 uses the
// dictionary MaxWords.
func (d *Dictionary) SuggestN(codes [][]rune, ambiguous bool, nextLetters []int, limit int) (*Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}

	q := d.query(codes, ambiguous, NoSkip, nextLetters)
	if limit > 0 {
		q.MaxWords = limit
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	opts := d.searchOptions()
	out := newRanked(q.MaxWords, q.MaxWordLength)
	searchInto(d.trie, &q, out, opts...)

	if out.count() < min(d.settings.FallbackThreshold, q.MaxWords) {
		for skip := 0; skip < len(codes); skip++ {
			sq := q
			sq.SkipPos = skip
			sq.NextLetters = nil
			if searchInto(d.trie, &sq, out, opts...) > 0 {
				break
			}
		}
	}
	return &Result{Suggestions: out.suggestions()}, nil
}

// Stats reports the size of the dictionary.
func (d *Dictionary) Stats() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return map[string]int{
		"words":    d.trie.Len(),
		"nodes":    d.trie.NodeCount(),
		"maxWords": d.settings.MaxWords,
	}
}

// Walk visits every stored word until fn returns false.
func (d *Dictionary) Walk(fn func(word string, frequency int) bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.trie.Walk(fn)
}

// Closed reports whether Close has been called.
func (d *Dictionary) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Close drops the trie. Further writes fail with ErrClosed.
func (d *Dictionary) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trie.Reset()
	d.closed = true
}

func (d *Dictionary) searchOptions() []SearchOption {
	if d.settings.Transparent == nil {
		return nil
	}
	return []SearchOption{WithTransparent(d.settings.Transparent...)}
}
