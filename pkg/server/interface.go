/*
Package server implements msgpack IPC for the suggestion engine.

Clients write msgpack maps to stdin and read one msgpack map per request from
stdout. Every request carries an id, echoed in the response, and an action.
The server announces itself with a ready message before reading anything.

# IPC

Suggestions for a typed word, searched with QWERTY proximity rows:

	{"id": "r1", "a": "suggest", "w": "hrllo", "n": 8}

The response lists words best first with their rank and score, the count,
the time taken in microseconds and the letters that would extend the input:

	{"id": "r1", "s": [{"w": "hello", "r": 1, "f": 40}], "c": 1, "t": 152, "nl": {"s": 2}}

Keypad input sets t9 and sends digits in w. Explicit candidate rows go in k,
one string per input position, most likely first:

	{"id": "r2", "a": "suggest", "w": "4663", "t9": true}
	{"id": "r3", "a": "suggest", "k": ["c", "ao", "tr"], "skip": 1}

Words are learned and inspected with add, freq, pick and type; dictionaries
are opened, closed and measured with open, close and stats. pick reports a
chosen suggestion, type a word committed as typed:

	{"id": "r4", "a": "add", "d": "user", "w": "gopher", "f": 120}
	{"id": "r5", "a": "pick", "w": "gopher"}
	{"id": "r6", "a": "type", "w": "gopher"}

The main dictionary can be resized at runtime when it is backed by chunk
files, and a few limits can be changed and persisted:

	{"id": "r7", "a": "size", "chunks": 3}
	{"id": "r8", "a": "sizes"}
	{"id": "r9", "a": "config", "max_limit": 32}

A failed request gets {"id": ..., "e": message, "c": code} instead.

# Dictionaries

Dictionaries are addressed by name. main holds the primed word list, user
the words added by hand or promoted by learning, and auto the words being
learned. A suggest request without d searches every open dictionary and
merges the results.
*/
package server

import "github.com/bastiangx/smartdict/pkg/dictionary"

// Actions understood by the server.
const (
	ActionSuggest = "suggest"
	ActionAdd     = "add"
	ActionFreq    = "freq"
	ActionPick    = "pick"
	ActionType    = "type"
	ActionOpen    = "open"
	ActionClose   = "close"
	ActionStats   = "stats"
	ActionSize    = "size"
	ActionSizes   = "sizes"
	ActionConfig  = "config"
	ActionHealth  = "health"
)

// Error codes sent in ErrorResponse.
const (
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeConflict   = 409
	CodeInternal   = 500
)

// Request is the union of every request shape.
type Request struct {
	ID     string   `msgpack:"id"`
	Action string   `msgpack:"a"`
	Dict   string   `msgpack:"d,omitempty"`
	Word   string   `msgpack:"w,omitempty"`
	Keys   []string `msgpack:"k,omitempty"`
	T9     bool     `msgpack:"t9,omitempty"`
	Exact  bool     `msgpack:"x,omitempty"`
	Limit  int      `msgpack:"n,omitempty"`
	Skip   *int     `msgpack:"skip,omitempty"`
	Freq   int      `msgpack:"f,omitempty"`
	Chunks *int     `msgpack:"chunks,omitempty"`

	MaxLimit           *int  `msgpack:"max_limit,omitempty"`
	MaxWords           *int  `msgpack:"max_words,omitempty"`
	ReinforceSaturates *bool `msgpack:"reinforce_saturates,omitempty"`
}

// Suggestion is one ranked word.
type Suggestion struct {
	Word  string `msgpack:"w"`
	Rank  uint16 `msgpack:"r"`
	Score int    `msgpack:"f"`
}

// SuggestResponse answers a suggest request.
type SuggestResponse struct {
	ID          string         `msgpack:"id"`
	Suggestions []Suggestion   `msgpack:"s"`
	Count       int            `msgpack:"c"`
	TimeTaken   int64          `msgpack:"t"`
	NextLetters map[string]int `msgpack:"nl,omitempty"`
}

// WordResponse answers add, freq, pick and type.
type WordResponse struct {
	ID       string `msgpack:"id"`
	Dict     string `msgpack:"d"`
	Word     string `msgpack:"w"`
	Found    bool   `msgpack:"ok"`
	Freq     int    `msgpack:"f"`
	Promoted bool   `msgpack:"p,omitempty"`
}

// StatusResponse answers health, open, close, stats, size, sizes and config.
type StatusResponse struct {
	ID      string                    `msgpack:"id"`
	Status  string                    `msgpack:"status"`
	Dicts   []string                  `msgpack:"dicts,omitempty"`
	Stats   map[string]map[string]int `msgpack:"stats,omitempty"`
	Words   int                       `msgpack:"words,omitempty"`
	Options []dictionary.SizeOption   `msgpack:"options,omitempty"`
}

// ErrorResponse holds basic error information for any request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
