package suggest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankedOrdering(t *testing.T) {
	r := newRanked(4, 10)
	assert.True(t, r.add([]rune("beta"), 20))
	assert.True(t, r.add([]rune("alpha"), 30))
	assert.True(t, r.add([]rune("gamma"), 20))
	assert.True(t, r.add([]rune("pi"), 20))

	assert.Equal(t, []Suggestion{
		{Word: "alpha", Score: 30},
		{Word: "pi", Score: 20},
		{Word: "beta", Score: 20},
		{Word: "gamma", Score: 20},
	}, r.suggestions())
}

func TestRankedCapacity(t *testing.T) {
	r := newRanked(2, 10)
	assert.True(t, r.add([]rune("one"), 5))
	assert.True(t, r.add([]rune("two"), 9))
	assert.False(t, r.add([]rune("low"), 1), "does not beat any slot")
	assert.True(t, r.add([]rune("top"), 50))

	assert.Equal(t, 2, r.count())
	assert.Equal(t, []Suggestion{{Word: "top", Score: 50}, {Word: "two", Score: 9}}, r.suggestions())
}

func TestRankedRejects(t *testing.T) {
	r := newRanked(3, 4)
	assert.False(t, r.add([]rune("zero"), 0))
	assert.False(t, r.add([]rune("toolong"), 100))
	assert.False(t, r.add(nil, 3))
	assert.Equal(t, 0, r.count())
	assert.Empty(t, r.suggestions())
}

func TestRankedDuplicates(t *testing.T) {
	r := newRanked(3, 10)
	assert.True(t, r.add([]rune("word"), 10))
	assert.True(t, r.add([]rune("other"), 8))
	assert.False(t, r.add([]rune("word"), 4), "lower score for a stored word")
	assert.True(t, r.add([]rune("other"), 30))

	assert.Equal(t, []Suggestion{{Word: "other", Score: 30}, {Word: "word", Score: 10}}, r.suggestions())
}

func TestRankedStaysSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	letters := []rune("abcdefgh")
	r := newRanked(12, 8)
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(6)
		word := make([]rune, n)
		for j := range word {
			word[j] = letters[rng.Intn(len(letters))]
		}
		r.add(word, 1+rng.Intn(40))
		assertSorted(t, r.suggestions())
	}
	assert.Equal(t, 12, r.count())
}

func TestMerge(t *testing.T) {
	main := &Result{Suggestions: []Suggestion{{Word: "there", Score: 90}, {Word: "the", Score: 80}}}
	user := &Result{Suggestions: []Suggestion{{Word: "the", Score: 120}, {Word: "thx", Score: 10}}}

	got := Merge(3, main, nil, user)
	assert.Equal(t, []Suggestion{
		{Word: "the", Score: 120},
		{Word: "there", Score: 90},
		{Word: "thx", Score: 10},
	}, got)

	assert.Len(t, Merge(1, main, user), 1)
	assert.Empty(t, Merge(0, main))
}
