package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/smartdict/pkg/config"
	"github.com/bastiangx/smartdict/pkg/dictionary"
	"github.com/bastiangx/smartdict/pkg/learn"
	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T) (*InputHandler, *suggest.Dictionary, *suggest.Dictionary) {
	t.Helper()
	cfg := config.DefaultConfig()
	main := suggest.NewDictionary("main", cfg.Settings())
	for w, f := range map[string]int{"hello": 200, "help": 150, "gone": 80, "home": 60} {
		require.NoError(t, main.AddWord(w, f))
	}
	user := suggest.NewDictionary("user", cfg.Settings())
	auto := suggest.NewDictionary("auto", cfg.Settings())
	return NewInputHandler(main, user, learn.New(main, auto, user), cfg), main, user
}

func run(t *testing.T, h *InputHandler, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, h.Run(strings.NewReader(strings.Join(lines, "\n")), &out, false))
	return out.String()
}

func TestSuggestions(t *testing.T) {
	h, _, _ := newHandler(t)
	out := run(t, h, "hel")

	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "help")
	assert.Less(t, strings.Index(out, "hello"), strings.Index(out, "help"))
	assert.Contains(t, out, "next:")
}

func TestSuggestionsKeepCase(t *testing.T) {
	h, _, _ := newHandler(t)
	out := run(t, h, "Hel")
	assert.Contains(t, out, "Hello")
}

func TestKeypadInput(t *testing.T) {
	h, _, _ := newHandler(t)
	// 4663 spells both gone and home
	out := run(t, h, "4663")
	assert.Contains(t, out, "gone")
	assert.Contains(t, out, "home")
}

func TestFilteredInput(t *testing.T) {
	h, _, _ := newHandler(t)
	out := run(t, h, "zzzz", "a-b!")
	assert.Contains(t, out, "No suggestions for 'zzzz'")
	assert.Contains(t, out, "No suggestions for 'a-b!'")
}

func TestAddAndPick(t *testing.T) {
	h, main, user := newHandler(t)
	out := run(t, h, "+gopher 90", "+bad x", "!hello")

	freq, ok := user.Frequency("gopher")
	require.True(t, ok)
	assert.Equal(t, 90, freq)
	assert.Contains(t, out, "added")

	freq, _ = main.Frequency("hello")
	assert.Equal(t, 201, freq)
}

func TestPickPromotes(t *testing.T) {
	h, _, user := newHandler(t)
	out := run(t, h, "!rust", "!rust", "!rust", "!rust", "!rust")

	assert.Contains(t, out, "promoted")
	_, ok := user.Frequency("rust")
	assert.True(t, ok)
}

func TestStats(t *testing.T) {
	h, _, _ := newHandler(t)
	out := run(t, h, ":stats")
	assert.Contains(t, out, "main: 4 words")
	assert.Contains(t, out, "user: 0 words")
}

func TestSourceWords(t *testing.T) {
	h, _, _ := newHandler(t)
	assert.NotContains(t, run(t, h, ":source he"), "hello")

	l := dictionary.NewLoader(t.TempDir())
	l.AddEntries([]dictionary.Entry{{Word: "hello", Frequency: 200}, {Word: "help", Frequency: 150}, {Word: "world", Frequency: 90}})
	h.WithLoader(l)

	out := run(t, h, ":source HE", ":source zz")
	assert.Contains(t, out, "hello (200)")
	assert.Contains(t, out, "help (150)")
	assert.NotContains(t, out, "world")
	assert.Contains(t, out, "No source words for 'zz'")
}

func TestTopLetters(t *testing.T) {
	hist := make([]int, 128)
	hist['a'] = 1
	hist['b'] = 5
	hist['c'] = 3
	assert.Equal(t, "b:5 c:3", topLetters(hist, 2))
	assert.Empty(t, topLetters(make([]int, 4), 2))
}
