package server

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/smartdict/internal/logger"
	"github.com/bastiangx/smartdict/pkg/config"
	"github.com/bastiangx/smartdict/pkg/dictionary"
	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	main := suggest.NewDictionary(MainDict, cfg.Settings())
	for w, f := range map[string]int{"hello": 200, "help": 150, "world": 100, "cat": 90, "car": 60} {
		require.NoError(t, main.AddWord(w, f))
	}
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	return NewServer(cfg, "", main, opts...)
}

// exchange serves reqs and returns a decoder positioned after the ready
// message.
func exchange(t *testing.T, s *Server, reqs ...Request) *msgpack.Decoder {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range reqs {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, s.Serve(context.Background(), &in, &out))

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	require.Equal(t, "ready", ready.Status)
	return dec
}

func words(resp SuggestResponse) []string {
	out := make([]string, len(resp.Suggestions))
	for i, s := range resp.Suggestions {
		out[i] = s.Word
	}
	return out
}

func intPtr(n int) *int { return &n }

func TestServeReady(t *testing.T) {
	s := newTestServer(t)
	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), &bytes.Buffer{}, &out))

	var ready StatusResponse
	require.NoError(t, msgpack.NewDecoder(&out).Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, []string{AutoDict, MainDict, UserDict}, ready.Dicts)
}

func TestSuggestExact(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s, Request{ID: "1", Action: ActionSuggest, Word: "hel", Exact: true})

	var resp SuggestResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "1", resp.ID)
	require.GreaterOrEqual(t, resp.Count, 2)
	assert.Equal(t, []string{"hello", "help"}, words(resp)[:2])
	assert.Equal(t, uint16(1), resp.Suggestions[0].Rank)
	assert.Equal(t, uint16(2), resp.Suggestions[1].Rank)
	assert.Contains(t, resp.NextLetters, "l")
	assert.Contains(t, resp.NextLetters, "p")
}

func TestSuggestProximity(t *testing.T) {
	s := newTestServer(t)
	// r sits next to e
	dec := exchange(t, s, Request{ID: "1", Action: ActionSuggest, Word: "hrl"})

	var resp SuggestResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Contains(t, words(resp), "hello")
	assert.Contains(t, words(resp), "help")
}

func TestSuggestFollowsTypedCase(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionSuggest, Word: "Hel", Exact: true},
		Request{ID: "2", Action: ActionSuggest, Word: "HEL", Exact: true},
	)

	var title, upper SuggestResponse
	require.NoError(t, dec.Decode(&title))
	require.NoError(t, dec.Decode(&upper))
	assert.Equal(t, "Hello", title.Suggestions[0].Word)
	assert.Equal(t, "HELLO", upper.Suggestions[0].Word)
}

func TestSuggestT9(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionSuggest, Word: "4355", T9: true},
		Request{ID: "2", Action: ActionSuggest, Word: "43a", T9: true},
	)

	var resp SuggestResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "hello", resp.Suggestions[0].Word)

	var bad ErrorResponse
	require.NoError(t, dec.Decode(&bad))
	assert.Equal(t, "2", bad.ID)
	assert.Equal(t, CodeBadRequest, bad.Code)
}

func TestSuggestKeysWithSkip(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionSuggest, Keys: []string{"h", "x", "l"}, Skip: intPtr(1)},
		Request{ID: "2", Action: ActionSuggest, Keys: []string{"h", "e"}, Skip: intPtr(5)},
	)

	var resp SuggestResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Contains(t, words(resp), "hello")

	var bad ErrorResponse
	require.NoError(t, dec.Decode(&bad))
	assert.Equal(t, CodeBadRequest, bad.Code)
}

func TestSuggestLimit(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Server.MaxLimit = 2
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionSuggest, Word: "h", Exact: true, Limit: 1},
		Request{ID: "2", Action: ActionSuggest, Word: "c", Exact: true, Limit: 50},
	)

	var one, capped SuggestResponse
	require.NoError(t, dec.Decode(&one))
	require.NoError(t, dec.Decode(&capped))
	assert.Equal(t, []string{"hello"}, words(one))
	assert.LessOrEqual(t, capped.Count, 2)
}

func TestSuggestRejectsInput(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionSuggest},
		Request{ID: "2", Action: ActionSuggest, Word: "zzzz"},
		Request{ID: "3", Action: ActionSuggest, Word: "he", Dict: "nope"},
		Request{ID: "4", Action: "explode"},
	)

	var missing ErrorResponse
	require.NoError(t, dec.Decode(&missing))
	assert.Equal(t, CodeBadRequest, missing.Code)

	var filtered SuggestResponse
	require.NoError(t, dec.Decode(&filtered))
	assert.Equal(t, "2", filtered.ID)
	assert.Zero(t, filtered.Count)

	var unknown ErrorResponse
	require.NoError(t, dec.Decode(&unknown))
	assert.Equal(t, CodeNotFound, unknown.Code)

	var action ErrorResponse
	require.NoError(t, dec.Decode(&action))
	assert.Equal(t, CodeBadRequest, action.Code)
}

func TestAddThenSuggestMerges(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionAdd, Word: "helium"},
		Request{ID: "2", Action: ActionSuggest, Word: "hel", Exact: true},
		Request{ID: "3", Action: ActionSuggest, Word: "hel", Exact: true, Dict: MainDict},
	)

	var added WordResponse
	require.NoError(t, dec.Decode(&added))
	assert.Equal(t, UserDict, added.Dict)
	assert.Equal(t, defaultUserFrequency, added.Freq)

	var all, mainOnly SuggestResponse
	require.NoError(t, dec.Decode(&all))
	require.NoError(t, dec.Decode(&mainOnly))
	assert.Contains(t, words(all), "helium")
	assert.NotContains(t, words(mainOnly), "helium")
}

func TestFreqAndPick(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionFreq, Word: "hello"},
		Request{ID: "2", Action: ActionPick, Word: "Hello"},
		Request{ID: "3", Action: ActionFreq, Word: "nothing"},
	)

	var freq, picked, missing WordResponse
	require.NoError(t, dec.Decode(&freq))
	require.NoError(t, dec.Decode(&picked))
	require.NoError(t, dec.Decode(&missing))
	assert.True(t, freq.Found)
	assert.Equal(t, 200, freq.Freq)
	assert.True(t, picked.Found)
	assert.Equal(t, 201, picked.Freq)
	assert.False(t, missing.Found)
}

func TestPickPromotesUnknownWord(t *testing.T) {
	s := newTestServer(t)
	reqs := make([]Request, 5)
	for i := range reqs {
		reqs[i] = Request{ID: "p", Action: ActionPick, Word: "gopher"}
	}
	dec := exchange(t, s, reqs...)

	var last WordResponse
	for range reqs {
		require.NoError(t, dec.Decode(&last))
	}
	assert.True(t, last.Promoted)

	freq, ok := s.dicts[AutoDict].Frequency("gopher")
	require.True(t, ok)
	assert.Equal(t, 15, freq)
	_, ok = s.dicts[UserDict].Frequency("gopher")
	assert.True(t, ok)
}

func TestTypeLearnsWord(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionType, Word: "Golang"},
		Request{ID: "2", Action: ActionType, Word: "golang"},
		Request{ID: "3", Action: ActionType},
	)

	var first, second WordResponse
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))
	assert.Equal(t, AutoDict, first.Dict)
	assert.Equal(t, 1, first.Freq)
	assert.Equal(t, 2, second.Freq)
	assert.False(t, second.Promoted)

	var missing ErrorResponse
	require.NoError(t, dec.Decode(&missing))
	assert.Equal(t, CodeBadRequest, missing.Code)
}

func TestOpenCloseStats(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionOpen, Dict: "extra"},
		Request{ID: "2", Action: ActionOpen, Dict: "extra"},
		Request{ID: "3", Action: ActionStats, Dict: MainDict},
		Request{ID: "4", Action: ActionClose, Dict: "extra"},
		Request{ID: "5", Action: ActionClose, Dict: "extra"},
		Request{ID: "6", Action: ActionHealth},
	)

	var opened StatusResponse
	require.NoError(t, dec.Decode(&opened))
	assert.Contains(t, opened.Dicts, "extra")

	var conflict ErrorResponse
	require.NoError(t, dec.Decode(&conflict))
	assert.Equal(t, CodeConflict, conflict.Code)

	var stats StatusResponse
	require.NoError(t, dec.Decode(&stats))
	assert.Equal(t, 5, stats.Stats[MainDict]["words"])

	var closed StatusResponse
	require.NoError(t, dec.Decode(&closed))
	assert.NotContains(t, closed.Dicts, "extra")

	var gone ErrorResponse
	require.NoError(t, dec.Decode(&gone))
	assert.Equal(t, CodeNotFound, gone.Code)

	var health StatusResponse
	require.NoError(t, dec.Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

func TestBuiltinDictionariesStayOpen(t *testing.T) {
	for _, learn := range []bool{false, true} {
		s := newTestServer(t)
		s.cfg.Dict.Learn = learn
		dec := exchange(t, s,
			Request{ID: "1", Action: ActionClose, Dict: AutoDict},
			Request{ID: "2", Action: ActionClose, Dict: UserDict},
			Request{ID: "3", Action: ActionClose, Dict: MainDict},
			Request{ID: "4", Action: ActionType, Word: "hello"},
		)

		for _, id := range []string{"1", "2", "3"} {
			var refused ErrorResponse
			require.NoError(t, dec.Decode(&refused))
			assert.Equal(t, id, refused.ID)
			assert.Equal(t, CodeConflict, refused.Code)
		}

		var typed WordResponse
		require.NoError(t, dec.Decode(&typed))
		assert.Equal(t, AutoDict, typed.Dict)
		if learn {
			assert.Equal(t, 1, typed.Freq)
		} else {
			assert.False(t, typed.Found)
		}
		assert.ElementsMatch(t, []string{MainDict, UserDict, AutoDict}, s.names())
	}
}

func TestTypeWithoutAutoDictionary(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Dict.Learn = false
	delete(s.dicts, AutoDict)
	dec := exchange(t, s, Request{ID: "1", Action: ActionType, Word: "hello"})

	var resp ErrorResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, CodeConflict, resp.Code)
}

func writeChunks(t *testing.T, dir string, chunks ...[]string) {
	t.Helper()
	rank := 1
	for i, words := range chunks {
		f, err := os.Create(filepath.Join(dir, dictionary.ChunkName(i+1)))
		require.NoError(t, err)
		require.NoError(t, dictionary.WriteChunk(f, words, rank))
		require.NoError(t, f.Close())
		rank += len(words)
	}
}

func TestSizeAndSizes(t *testing.T) {
	dir := t.TempDir()
	writeChunks(t, dir, []string{"the", "then"}, []string{"there", "these", "theme"})

	cfg := config.DefaultConfig()
	main := suggest.NewDictionary(MainDict, cfg.Settings())
	loader := dictionary.NewLoader(dir)
	rl := dictionary.NewRuntimeLoader(loader, main)
	_, err := rl.SetSize(1)
	require.NoError(t, err)

	s := NewServer(cfg, "", main, WithLogger(logger.Discard()), WithRuntimeLoader(rl))
	dec := exchange(t, s,
		Request{ID: "1", Action: ActionSizes},
		Request{ID: "2", Action: ActionSize, Chunks: intPtr(2)},
		Request{ID: "3", Action: ActionSize, Chunks: intPtr(9)},
		Request{ID: "4", Action: ActionSize},
		Request{ID: "5", Action: ActionStats},
	)

	var sizes StatusResponse
	require.NoError(t, dec.Decode(&sizes))
	require.Len(t, sizes.Options, 2)
	assert.Equal(t, 2, sizes.Options[0].WordCount)
	assert.Equal(t, 5, sizes.Options[1].WordCount)

	var grown StatusResponse
	require.NoError(t, dec.Decode(&grown))
	assert.Equal(t, 5, grown.Words)
	_, ok := main.Frequency("theme")
	assert.True(t, ok)

	var tooMany, missing ErrorResponse
	require.NoError(t, dec.Decode(&tooMany))
	require.NoError(t, dec.Decode(&missing))
	assert.Equal(t, CodeNotFound, tooMany.Code)
	assert.Equal(t, CodeBadRequest, missing.Code)

	var stats StatusResponse
	require.NoError(t, dec.Decode(&stats))
	assert.Equal(t, 2, stats.Stats["loader"]["loadedChunks"])
}

func TestSizeWithoutChunks(t *testing.T) {
	s := newTestServer(t)
	dec := exchange(t, s, Request{ID: "1", Action: ActionSizes})

	var resp ErrorResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, CodeConflict, resp.Code)
}

func TestConfigAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	main := suggest.NewDictionary(MainDict, cfg.Settings())
	s := NewServer(cfg, path, main, WithLogger(logger.Discard()))

	dec := exchange(t, s, Request{ID: "1", Action: ActionConfig, MaxLimit: intPtr(8), MaxWords: intPtr(4)})

	var resp StatusResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 8, s.cfg.Server.MaxLimit)
	assert.Equal(t, 4, main.Settings().MaxWords)

	saved, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, saved.Server.MaxLimit)
	assert.Equal(t, 4, saved.Engine.MaxWords)
}

func TestServeRejectsGarbage(t *testing.T) {
	s := newTestServer(t)
	var out bytes.Buffer
	err := s.Serve(context.Background(), bytes.NewReader([]byte{0xc1}), &out)
	require.Error(t, err)

	dec := msgpack.NewDecoder(&out)
	var ready StatusResponse
	require.NoError(t, dec.Decode(&ready))
	var resp ErrorResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, CodeBadRequest, resp.Code)
}

func TestWatchReloadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	require.NoError(t, config.SaveConfig(cfg, path))

	main := suggest.NewDictionary(MainDict, cfg.Settings())
	s := NewServer(cfg, path, main, WithLogger(logger.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	next := config.DefaultConfig()
	next.Engine.MaxWords = 7
	require.NoError(t, config.SaveConfig(next, path))

	assert.Eventually(t, func() bool {
		return main.Settings().MaxWords == 7
	}, 2*time.Second, 20*time.Millisecond)
}
