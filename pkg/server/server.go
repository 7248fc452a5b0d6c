package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/smartdict/internal/logger"
	"github.com/bastiangx/smartdict/internal/utils"
	"github.com/bastiangx/smartdict/pkg/config"
	"github.com/bastiangx/smartdict/pkg/dictionary"
	"github.com/bastiangx/smartdict/pkg/keymap"
	"github.com/bastiangx/smartdict/pkg/learn"
	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/bastiangx/smartdict/pkg/trie"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	MainDict = "main"
	UserDict = "user"
	AutoDict = "auto"

	// defaultUserFrequency is used by add when no frequency is given.
	defaultUserFrequency = 128
	// nextLetterRange is the number of code points tallied for next letters.
	nextLetterRange = 1280
)

// Server answers msgpack requests against a set of named dictionaries.
// Requests are handled one at a time; config reloads are applied between
// them.
type Server struct {
	cfg        *config.Config
	configPath string
	dicts      map[string]*suggest.Dictionary
	learner    *learn.Learner
	sizer      *dictionary.RuntimeLoader
	logger     *log.Logger

	mu  sync.Mutex
	enc *msgpack.Encoder
	out *bufio.Writer
}

// Option configures a Server.
type Option func(*Server)

// WithUserDictionary replaces the empty user dictionary.
func WithUserDictionary(d *suggest.Dictionary) Option {
	return func(s *Server) { s.dicts[UserDict] = d }
}

// WithRuntimeLoader enables the size and sizes actions for main.
func WithRuntimeLoader(rl *dictionary.RuntimeLoader) Option {
	return func(s *Server) { s.sizer = rl }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server answering from main plus fresh user and auto
// dictionaries.
func NewServer(cfg *config.Config, configPath string, main *suggest.Dictionary, opts ...Option) *Server {
	settings := cfg.Settings()
	s := &Server{
		cfg:        cfg,
		configPath: configPath,
		dicts: map[string]*suggest.Dictionary{
			MainDict: main,
			UserDict: suggest.NewDictionary(UserDict, settings),
			AutoDict: suggest.NewDictionary(AutoDict, settings),
		},
		logger: logger.New("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.learner = learn.New(main, s.dicts[AutoDict], s.dicts[UserDict])
	s.learner.AutoAddToUser = cfg.Dict.AutoAddToUser
	return s
}

// Start watches the config file when enabled and serves stdin/stdout.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Server.WatchConfig && s.configPath != "" {
		if err := s.Watch(ctx); err != nil {
			s.logger.Warnf("Config hot reload disabled: %v", err)
		}
	}
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads requests from r until EOF or ctx is done and writes one
// response per request to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = bufio.NewWriter(w)
	s.enc = msgpack.NewEncoder(s.out)
	dec := msgpack.NewDecoder(bufio.NewReader(r))

	s.logger.Debug("Starting server")
	s.send(StatusResponse{Status: "ready", Dicts: s.names()})

	for ctx.Err() == nil {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.sendError("", fmt.Sprintf("invalid request: %v", err), CodeBadRequest)
			return fmt.Errorf("decoding request: %w", err)
		}
		s.handle(req)
	}
	return nil
}

func (s *Server) handle(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debugf("Request %s: %s", req.ID, req.Action)
	switch req.Action {
	case ActionSuggest:
		s.handleSuggest(req)
	case ActionAdd:
		s.handleAdd(req)
	case ActionFreq:
		s.handleFreq(req)
	case ActionPick:
		s.handlePick(req)
	case ActionType:
		s.handleType(req)
	case ActionOpen:
		s.handleOpen(req)
	case ActionClose:
		s.handleClose(req)
	case ActionStats:
		s.handleStats(req)
	case ActionSize:
		s.handleSize(req)
	case ActionSizes:
		s.handleSizes(req)
	case ActionConfig:
		s.handleConfig(req)
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok", Dicts: s.names()})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action %q", req.Action), CodeBadRequest)
	}
}

func (s *Server) handleSuggest(req Request) {
	codes, typed, err := s.codes(req)
	if err != nil {
		s.sendError(req.ID, err.Error(), CodeBadRequest)
		return
	}
	if codes == nil {
		s.send(SuggestResponse{ID: req.ID, Suggestions: []Suggestion{}})
		return
	}

	dicts, ok := s.targets(req.Dict)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown dictionary %q", req.Dict), CodeNotFound)
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.Engine.MaxWords
	}
	limit = min(limit, s.cfg.Server.MaxLimit)

	hist := make([]int, nextLetterRange)
	start := time.Now()
	results := make([]*suggest.Result, 0, len(dicts))
	for _, d := range dicts {
		var res *suggest.Result
		if req.Skip != nil {
			q := d.Query(codes, req.T9, *req.Skip, hist)
			q.MaxWords = limit
			res, err = d.Search(q)
		} else {
			res, err = d.SuggestN(codes, req.T9, hist, limit)
		}
		if err != nil {
			s.sendError(req.ID, err.Error(), errorCode(err))
			return
		}
		results = append(results, res)
	}
	merged := suggest.Merge(limit, results...)
	elapsed := time.Since(start)

	c := utils.CaseOf(typed)
	filter := utils.NewSuggestionFilter()
	out := make([]Suggestion, 0, len(merged))
	for _, m := range merged {
		word := utils.ApplyCase(m.Word, c)
		if !filter.ShouldInclude(word) {
			continue
		}
		out = append(out, Suggestion{Word: word, Score: m.Score})
	}
	for i, rank := range utils.CreateRankList(len(out)) {
		out[i].Rank = rank
	}

	s.send(SuggestResponse{
		ID:          req.ID,
		Suggestions: out,
		Count:       len(out),
		TimeTaken:   elapsed.Microseconds(),
		NextLetters: nextLetters(hist),
	})
}

// codes turns a request into candidate rows. A nil result with no error
// means the input was filtered out.
func (s *Server) codes(req Request) ([][]rune, string, error) {
	if len(req.Keys) > 0 {
		codes := make([][]rune, len(req.Keys))
		for i, k := range req.Keys {
			if k == "" {
				return nil, "", fmt.Errorf("empty candidate row %d", i)
			}
			codes[i] = []rune(k)
		}
		return codes, "", nil
	}

	w := req.Word
	n := utf8.RuneCountInString(w)
	switch {
	case w == "":
		return nil, "", errors.New("missing word")
	case n < s.cfg.Server.MinPrefix:
		return nil, "", fmt.Errorf("word must be at least %d characters", s.cfg.Server.MinPrefix)
	case n > s.cfg.Server.MaxPrefix:
		return nil, "", fmt.Errorf("word exceeds maximum length of %d characters", s.cfg.Server.MaxPrefix)
	}

	if req.T9 {
		codes, err := keymap.T9(w)
		return codes, "", err
	}
	if s.cfg.Server.EnableFilter && !utils.IsValidInput(w) {
		s.logger.Debugf("Filtered input %q", w)
		return nil, w, nil
	}
	lower := strings.ToLower(w)
	if req.Exact {
		return keymap.Exact(lower), w, nil
	}
	return keymap.Proximity(lower), w, nil
}

// targets returns the dictionaries a request reads from. An empty name
// means every open dictionary.
func (s *Server) targets(name string) ([]*suggest.Dictionary, bool) {
	if name != "" {
		d, ok := s.dicts[name]
		if !ok {
			return nil, false
		}
		return []*suggest.Dictionary{d}, true
	}
	out := make([]*suggest.Dictionary, 0, len(s.dicts))
	for _, n := range s.names() {
		out = append(out, s.dicts[n])
	}
	return out, true
}

func (s *Server) dict(name, fallback string) (*suggest.Dictionary, string, bool) {
	if name == "" {
		name = fallback
	}
	d, ok := s.dicts[name]
	return d, name, ok
}

func (s *Server) handleAdd(req Request) {
	d, name, ok := s.dict(req.Dict, UserDict)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown dictionary %q", name), CodeNotFound)
		return
	}
	freq := req.Freq
	if freq <= 0 {
		freq = defaultUserFrequency
	}
	if err := d.AddWord(req.Word, freq); err != nil {
		s.sendError(req.ID, err.Error(), errorCode(err))
		return
	}
	stored, _ := d.Frequency(req.Word)
	s.send(WordResponse{ID: req.ID, Dict: name, Word: req.Word, Found: true, Freq: stored})
}

func (s *Server) handleFreq(req Request) {
	d, name, ok := s.dict(req.Dict, MainDict)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown dictionary %q", name), CodeNotFound)
		return
	}
	freq, found := d.Frequency(req.Word)
	s.send(WordResponse{ID: req.ID, Dict: name, Word: req.Word, Found: found, Freq: freq})
}

// handlePick reinforces a chosen suggestion and feeds it to the learner.
func (s *Server) handlePick(req Request) {
	if req.Word == "" {
		s.sendError(req.ID, "missing word", CodeBadRequest)
		return
	}
	d, name, ok := s.dict(req.Dict, MainDict)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown dictionary %q", name), CodeNotFound)
		return
	}
	freq, found := d.Reinforce(req.Word)
	if !found {
		freq, found = d.Reinforce(strings.ToLower(req.Word))
	}

	var promoted bool
	if s.cfg.Dict.Learn {
		var err error
		if promoted, err = s.learner.Pick(req.Word); err != nil {
			s.sendError(req.ID, err.Error(), errorCode(err))
			return
		}
	}
	s.send(WordResponse{ID: req.ID, Dict: name, Word: req.Word, Found: found, Freq: freq, Promoted: promoted})
}

// handleType records a word committed without picking a suggestion.
func (s *Server) handleType(req Request) {
	if req.Word == "" {
		s.sendError(req.ID, "missing word", CodeBadRequest)
		return
	}
	var promoted bool
	if s.cfg.Dict.Learn {
		var err error
		if promoted, err = s.learner.Type(req.Word); err != nil {
			s.sendError(req.ID, err.Error(), errorCode(err))
			return
		}
	}
	auto, ok := s.dicts[AutoDict]
	if !ok {
		s.sendError(req.ID, "auto dictionary is not open", CodeConflict)
		return
	}
	freq, found := auto.Frequency(strings.ToLower(req.Word))
	s.send(WordResponse{ID: req.ID, Dict: AutoDict, Word: req.Word, Found: found, Freq: freq, Promoted: promoted})
}

func (s *Server) handleOpen(req Request) {
	if req.Dict == "" {
		s.sendError(req.ID, "missing dictionary name", CodeBadRequest)
		return
	}
	if _, ok := s.dicts[req.Dict]; ok {
		s.sendError(req.ID, fmt.Sprintf("dictionary %q is already open", req.Dict), CodeConflict)
		return
	}
	s.dicts[req.Dict] = suggest.NewDictionary(req.Dict, s.cfg.Settings())
	s.logger.Infof("Opened dictionary %s", req.Dict)
	s.send(StatusResponse{ID: req.ID, Status: "ok", Dicts: s.names()})
}

// handleClose drops a dictionary opened with the open action. The built-in
// dictionaries back the learner and the saved user list and stay open.
func (s *Server) handleClose(req Request) {
	d, ok := s.dicts[req.Dict]
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown dictionary %q", req.Dict), CodeNotFound)
		return
	}
	if isBuiltin(req.Dict) {
		s.sendError(req.ID, fmt.Sprintf("dictionary %q cannot be closed", req.Dict), CodeConflict)
		return
	}
	d.Close()
	delete(s.dicts, req.Dict)
	s.logger.Infof("Closed dictionary %s", req.Dict)
	s.send(StatusResponse{ID: req.ID, Status: "ok", Dicts: s.names()})
}

func isBuiltin(name string) bool {
	return name == MainDict || name == UserDict || name == AutoDict
}

func (s *Server) handleStats(req Request) {
	names := s.names()
	if req.Dict != "" {
		if _, ok := s.dicts[req.Dict]; !ok {
			s.sendError(req.ID, fmt.Sprintf("unknown dictionary %q", req.Dict), CodeNotFound)
			return
		}
		names = []string{req.Dict}
	}
	stats := make(map[string]map[string]int, len(names)+1)
	for _, n := range names {
		stats[n] = s.dicts[n].Stats()
	}
	if s.sizer != nil && req.Dict == "" {
		ls := s.sizer.Stats()
		stats["loader"] = map[string]int{
			"words":           ls.Words,
			"loadedChunks":    ls.LoadedChunks,
			"availableChunks": ls.AvailableChunks,
			"textWords":       ls.TextWords,
		}
	}
	s.send(StatusResponse{ID: req.ID, Status: "ok", Dicts: names, Stats: stats})
}

func (s *Server) handleSize(req Request) {
	if s.sizer == nil {
		s.sendError(req.ID, "main dictionary is not backed by chunk files", CodeConflict)
		return
	}
	if req.Chunks == nil || *req.Chunks < 1 {
		s.sendError(req.ID, "chunk count must be at least 1", CodeBadRequest)
		return
	}
	words, err := s.sizer.SetSize(*req.Chunks)
	if err != nil {
		s.sendError(req.ID, err.Error(), errorCode(err))
		return
	}
	s.send(StatusResponse{ID: req.ID, Status: "ok", Words: words})
}

func (s *Server) handleSizes(req Request) {
	if s.sizer == nil {
		s.sendError(req.ID, "main dictionary is not backed by chunk files", CodeConflict)
		return
	}
	options, err := s.sizer.SizeOptions()
	if err != nil {
		s.sendError(req.ID, err.Error(), CodeInternal)
		return
	}
	s.send(StatusResponse{ID: req.ID, Status: "ok", Options: options})
}

func (s *Server) handleConfig(req Request) {
	next := *s.cfg
	if err := next.Update(s.configPath, req.MaxLimit, req.MaxWords, req.ReinforceSaturates); err != nil {
		s.sendError(req.ID, fmt.Sprintf("saving config: %v", err), CodeInternal)
		return
	}
	s.applyLocked(&next)
	s.send(StatusResponse{ID: req.ID, Status: "ok"})
}

// ApplyConfig swaps in cfg and pushes its engine settings to every open
// dictionary.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(cfg)
}

func (s *Server) applyLocked(cfg *config.Config) {
	if cfg.Engine.ReinforceSaturates != s.cfg.Engine.ReinforceSaturates {
		s.logger.Warn("reinforce_saturates only applies to dictionaries opened after the change")
	}
	s.cfg = cfg
	settings := cfg.Settings()
	for _, d := range s.dicts {
		d.SetSettings(settings)
	}
	s.learner.AutoAddToUser = cfg.Dict.AutoAddToUser
	s.logger.Debugf("Applied config: max_words=%d max_limit=%d", cfg.Engine.MaxWords, cfg.Server.MaxLimit)
}

func (s *Server) names() []string {
	names := make([]string, 0, len(s.dicts))
	for n := range s.dicts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Server) send(v any) {
	if err := s.enc.Encode(v); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, suggest.ErrInvalidQuery),
		errors.Is(err, trie.ErrEmptyWord),
		errors.Is(err, keymap.ErrNotKeypad):
		return CodeBadRequest
	case errors.Is(err, dictionary.ErrNoChunks):
		return CodeNotFound
	case errors.Is(err, suggest.ErrClosed):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// nextLetters keeps the non-zero entries of a histogram.
func nextLetters(hist []int) map[string]int {
	var out map[string]int
	for c, n := range hist {
		if n == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]int)
		}
		out[string(rune(c))] = n
	}
	return out
}
