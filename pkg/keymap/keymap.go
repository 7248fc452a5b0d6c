// Package keymap turns typed input into candidate rows for the suggestion search.
//
// A row lists every character a keystroke could stand for, most likely first.
// Exact input yields one character per row, a phone keypad yields the letters
// printed on each key, and a touch keyboard yields the typed letter followed
// by its neighbours.
package keymap

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNotKeypad is returned for T9 input containing a non-keypad character.
var ErrNotKeypad = errors.New("not a keypad digit")

// keypad is the ITU E.161 letter assignment.
var keypad = map[rune][]rune{
	'1': []rune("'-."),
	'2': []rune("abc"),
	'3': []rune("def"),
	'4': []rune("ghi"),
	'5': []rune("jkl"),
	'6': []rune("mno"),
	'7': []rune("pqrs"),
	'8': []rune("tuv"),
	'9': []rune("wxyz"),
}

// qwertyRows is the letter block of a US keyboard.
var qwertyRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

var neighbours = buildNeighbours()

// buildNeighbours maps every letter to the keys touching it on a staggered
// layout: left and right on its own row, two keys on the row above and two
// on the row below.
func buildNeighbours() map[rune][]rune {
	pos := map[rune][2]int{}
	for r, row := range qwertyRows {
		for c, k := range row {
			pos[k] = [2]int{r, c}
		}
	}
	at := func(r, c int) (rune, bool) {
		if r < 0 || r >= len(qwertyRows) || c < 0 || c >= len(qwertyRows[r]) {
			return 0, false
		}
		return rune(qwertyRows[r][c]), true
	}
	out := make(map[rune][]rune, len(pos))
	for k, p := range pos {
		r, c := p[0], p[1]
		candidates := [][2]int{
			{r, c - 1}, {r, c + 1},
			{r - 1, c}, {r - 1, c + 1},
			{r + 1, c - 1}, {r + 1, c},
		}
		for _, cand := range candidates {
			if n, ok := at(cand[0], cand[1]); ok {
				out[k] = append(out[k], n)
			}
		}
	}
	return out
}

// Exact returns one single-candidate row per rune of word.
func Exact(word string) [][]rune {
	codes := make([][]rune, 0, len(word))
	for _, r := range word {
		codes = append(codes, []rune{r})
	}
	return codes
}

// T9 expands keypad digits into their letter rows.
func T9(digits string) ([][]rune, error) {
	codes := make([][]rune, 0, len(digits))
	for i, d := range digits {
		letters, ok := keypad[d]
		if !ok {
			return nil, fmt.Errorf("keymap: %q at %d: %w", d, i, ErrNotKeypad)
		}
		codes = append(codes, letters)
	}
	return codes, nil
}

// Proximity returns, for every typed rune, the rune itself followed by the
// keys around it. Runes off the letter block get a single-candidate row.
// Upper-case input keeps the typed rune first and offers lower-case
// neighbours.
func Proximity(word string) [][]rune {
	codes := make([][]rune, 0, len(word))
	for _, r := range word {
		row := []rune{r}
		row = append(row, Neighbours(r)...)
		codes = append(codes, row)
	}
	return codes
}

// Neighbours returns the keys touching r, or nil.
func Neighbours(r rune) []rune {
	return neighbours[unicode.ToLower(r)]
}

// IsDigits reports whether s is non-empty and made of keypad digits only.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if _, ok := keypad[r]; !ok {
			return false
		}
	}
	return true
}
