// Package cli handles interactive input for trying out suggestions, learning
// and dictionary edits from a terminal.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/smartdict/internal/utils"
	"github.com/bastiangx/smartdict/pkg/config"
	"github.com/bastiangx/smartdict/pkg/dictionary"
	"github.com/bastiangx/smartdict/pkg/keymap"
	"github.com/bastiangx/smartdict/pkg/learn"
	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

const (
	defaultUserFrequency = 128
	nextLetterRange      = 1280
	shownNextLetters     = 5
)

var (
	wordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// InputHandler reads one line at a time and answers it.
//
//	hel       suggestions for hel, with keyboard proximity when enabled
//	4355      keypad digits, searched as T9
//	+word 90  add word to the user dictionary, frequency optional
//	!word     pick word: reinforce it and feed it to the learner
//	:stats    dictionary sizes
//	:source p staged source words starting with p, as loaded from chunks and lists
type InputHandler struct {
	main    *suggest.Dictionary
	user    *suggest.Dictionary
	learner *learn.Learner
	loader  *dictionary.Loader
	cfg     *config.Config
	out     io.Writer
}

// NewInputHandler creates a handler over main and user. learner may be nil
// to disable learning.
func NewInputHandler(main, user *suggest.Dictionary, learner *learn.Learner, cfg *config.Config) *InputHandler {
	return &InputHandler{main: main, user: user, learner: learner, cfg: cfg, out: os.Stdout}
}

// WithLoader enables the :source command over the words main was primed from.
func (h *InputHandler) WithLoader(l *dictionary.Loader) *InputHandler {
	h.loader = l
	return h
}

// Start runs the loop on stdin and stdout. The prompt is only printed when
// stdin is a terminal.
func (h *InputHandler) Start() error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		log.Print("smartdict CLI")
		log.Print("type something and press Enter to see suggestions (Ctrl+C to exit)")
	}
	return h.Run(os.Stdin, os.Stdout, interactive)
}

// Run reads lines from r until EOF and writes answers to w.
func (h *InputHandler) Run(r io.Reader, w io.Writer, prompt bool) error {
	h.out = w
	scanner := bufio.NewScanner(r)
	for {
		if prompt {
			fmt.Fprint(w, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := h.handleInput(line); err != nil {
			log.Error(err)
		}
	}
}

func (h *InputHandler) handleInput(line string) error {
	switch {
	case strings.HasPrefix(line, "+"):
		return h.add(strings.Fields(line[1:]))
	case strings.HasPrefix(line, "!"):
		return h.pick(strings.TrimSpace(line[1:]))
	case line == ":stats":
		h.stats()
		return nil
	case strings.HasPrefix(line, ":source"):
		return h.source(strings.TrimSpace(strings.TrimPrefix(line, ":source")))
	default:
		return h.suggest(line)
	}
}

func (h *InputHandler) suggest(input string) error {
	n := utf8.RuneCountInString(input)
	if n < h.cfg.Server.MinPrefix || n > h.cfg.Server.MaxPrefix {
		return fmt.Errorf("input length %d outside %d..%d", n, h.cfg.Server.MinPrefix, h.cfg.Server.MaxPrefix)
	}

	var (
		codes     [][]rune
		ambiguous bool
		err       error
	)
	switch {
	case keymap.IsDigits(input):
		codes, err = keymap.T9(input)
		ambiguous = true
	case h.cfg.Server.EnableFilter && !utils.IsValidInput(input):
		fmt.Fprintf(h.out, "No suggestions for '%s'\n", input)
		return nil
	case h.cfg.CLI.Proximity:
		codes = keymap.Proximity(strings.ToLower(input))
	default:
		codes = keymap.Exact(strings.ToLower(input))
	}
	if err != nil {
		return err
	}

	limit := h.cfg.CLI.DefaultLimit
	hist := make([]int, nextLetterRange)
	start := time.Now()
	var results []*suggest.Result
	for _, d := range []*suggest.Dictionary{h.main, h.user} {
		if d == nil {
			continue
		}
		res, err := d.SuggestN(codes, ambiguous, hist, limit)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	merged := suggest.Merge(limit, results...)
	log.Debugf("Took [ %v ] for '%s'", time.Since(start), input)

	if len(merged) == 0 {
		fmt.Fprintf(h.out, "No suggestions for '%s'\n", input)
		return nil
	}

	c := utils.CaseOf(input)
	if ambiguous {
		c = utils.CaseLower
	}
	fmt.Fprintf(h.out, "%d suggestions for '%s':\n", len(merged), input)
	for i, s := range merged {
		word := utils.ApplyCase(s.Word, c)
		fmt.Fprintf(h.out, "%2d. %s %s\n", i+1, wordStyle.Render(word), dimStyle.Render(fmt.Sprintf("(%d)", s.Score)))
	}
	if h.cfg.CLI.ShowNextLetters {
		if next := topLetters(hist, shownNextLetters); next != "" {
			fmt.Fprintf(h.out, "next: %s\n", next)
		}
	}
	return nil
}

func (h *InputHandler) add(fields []string) error {
	if h.user == nil {
		return errors.New("no user dictionary")
	}
	if len(fields) == 0 || len(fields) > 2 {
		return errors.New("usage: +word [frequency]")
	}
	freq := defaultUserFrequency
	if len(fields) == 2 {
		f, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid frequency %q", fields[1])
		}
		freq = f
	}
	if err := h.user.AddWord(fields[0], freq); err != nil {
		return err
	}
	stored, _ := h.user.Frequency(fields[0])
	fmt.Fprintf(h.out, "added %s (%d)\n", wordStyle.Render(fields[0]), stored)
	return nil
}

func (h *InputHandler) pick(word string) error {
	if word == "" {
		return errors.New("usage: !word")
	}
	if freq, ok := h.main.Reinforce(strings.ToLower(word)); ok {
		fmt.Fprintf(h.out, "%s now at %d\n", wordStyle.Render(word), freq)
	}
	if h.learner == nil {
		return nil
	}
	promoted, err := h.learner.Pick(word)
	if err != nil {
		return err
	}
	if promoted {
		fmt.Fprintf(h.out, "%s promoted to the user dictionary\n", wordStyle.Render(word))
	}
	return nil
}

func (h *InputHandler) stats() {
	for _, d := range []*suggest.Dictionary{h.main, h.user} {
		if d == nil {
			continue
		}
		st := d.Stats()
		fmt.Fprintf(h.out, "%s: %d words, %d nodes\n", d.Name(), st["words"], st["nodes"])
	}
}

func (h *InputHandler) source(prefix string) error {
	if h.loader == nil {
		return errors.New("no word sources loaded")
	}
	if prefix == "" {
		return errors.New("usage: :source prefix")
	}
	n := 0
	for word, freq := range h.loader.WithPrefix(strings.ToLower(prefix)) {
		if n == h.cfg.CLI.DefaultLimit {
			fmt.Fprintln(h.out, dimStyle.Render("..."))
			break
		}
		fmt.Fprintf(h.out, "%s %s\n", wordStyle.Render(word), dimStyle.Render(fmt.Sprintf("(%d)", freq)))
		n++
	}
	if n == 0 {
		fmt.Fprintf(h.out, "No source words for '%s'\n", prefix)
	}
	return nil
}

// topLetters formats the n most frequent next letters, most frequent first.
func topLetters(hist []int, n int) string {
	var letters []rune
	for c, count := range hist {
		if count > 0 {
			letters = append(letters, rune(c))
		}
	}
	sort.SliceStable(letters, func(i, j int) bool {
		return hist[letters[i]] > hist[letters[j]]
	})
	if len(letters) > n {
		letters = letters[:n]
	}
	parts := make([]string, len(letters))
	for i, c := range letters {
		parts[i] = fmt.Sprintf("%c:%d", c, hist[c])
	}
	return strings.Join(parts, " ")
}
