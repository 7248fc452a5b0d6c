// Package learn records the words a user picks or types and promotes the
// ones used often enough into the user dictionary.
package learn

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/bastiangx/smartdict/pkg/trie"
	"github.com/charmbracelet/log"
)

const (
	// FrequencyForPicked is added each time a suggestion is picked.
	FrequencyForPicked = 3
	// FrequencyForTyped is added each time a word is committed as typed.
	FrequencyForTyped = 1
	// ValidityThreshold is the learned frequency above which a word counts
	// as known.
	ValidityThreshold = 2 * FrequencyForPicked
	// PromotionThreshold is the learned frequency above which a word moves
	// to the user dictionary.
	PromotionThreshold = 4 * FrequencyForPicked
	// FrequencyForAutoAdd is the frequency a promoted word gets in the user
	// dictionary.
	FrequencyForAutoAdd = 250
)

// Learner accumulates usage in an auto dictionary. Known words come from
// main, which is never written to.
type Learner struct {
	main *suggest.Dictionary
	auto *suggest.Dictionary
	user *suggest.Dictionary

	// AutoAddToUser promotes every learned word regardless of its frequency.
	AutoAddToUser bool
}

// New returns a Learner. main and user may be nil.
func New(main, auto, user *suggest.Dictionary) *Learner {
	return &Learner{main: main, auto: auto, user: user}
}

// Pick records a picked suggestion. Words the main dictionary already knows
// are only learned once they are valid in the auto dictionary.
func (l *Learner) Pick(word string) (promoted bool, err error) {
	w := strings.ToLower(word)
	if !l.IsValid(w) && l.known(w) {
		return false, nil
	}
	return l.learn(w, FrequencyForPicked)
}

// Type records a word committed exactly as typed.
func (l *Learner) Type(word string) (promoted bool, err error) {
	return l.learn(strings.ToLower(word), FrequencyForTyped)
}

// IsValid reports whether word was used often enough to count as a real word.
func (l *Learner) IsValid(word string) bool {
	freq, ok := l.auto.Frequency(strings.ToLower(word))
	return ok && freq > ValidityThreshold
}

// Promoted reports whether word has been moved to the user dictionary.
func (l *Learner) Promoted(word string) bool {
	if l.user == nil {
		return false
	}
	_, ok := l.user.Frequency(strings.ToLower(word))
	return ok
}

func (l *Learner) known(word string) bool {
	if l.main == nil {
		return false
	}
	_, ok := l.main.Frequency(word)
	return ok
}

func (l *Learner) learn(word string, add int) (bool, error) {
	n := utf8.RuneCountInString(word)
	if n < 2 || n > l.auto.Settings().MaxWordLength {
		return false, nil
	}

	// stored frequencies only ever rise to the maximum inserted, so the
	// running total is written back explicitly
	freq, _ := l.auto.Frequency(word)
	freq = min(freq+add, trie.MaxFrequency)
	if err := l.auto.AddWord(word, freq); err != nil {
		return false, err
	}

	if l.user == nil || (freq <= PromotionThreshold && !l.AutoAddToUser) {
		return false, nil
	}
	if err := l.user.AddWord(word, FrequencyForAutoAdd); err != nil {
		return false, err
	}
	log.Debugf("promoted %q at frequency %d", word, freq)
	return true, nil
}
