// Copyright 2025 The smartdict Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the smartdict suggestion server and its interactive CLI.

smartdict suggests words for mistyped or ambiguous input. Every typed
position becomes a row of candidate letters: the key itself plus its QWERTY
neighbours, or the letters of a keypad digit. Words from a frequency ranked
trie are matched against those rows and scored by frequency and by how
closely they follow what was typed. When too few words match, the search is
retried allowing one missed or extra letter.

# Usage

Start the msgpack server on stdin/stdout:

	smartdict

Use a custom data directory, only the first two chunks, and debug logs:

	smartdict -data /path/to/chunks -chunks 2 -d

Try suggestions interactively:

	smartdict -c

Pack a "word frequency" text list into chunk files:

	smartdict -pack words.txt -data ./data -chunk-size 10000

# Word sources

The main dictionary is primed from chunk files named dict_0001.bin,
dict_0002.bin, and so on, holding words ranked by frequency, plus any text
word lists named in the config. The user dictionary is read from and saved
back to the configured user list.

# Configuration

Settings live in config.toml under the platform config directory and are
reloaded when the file changes:

	[engine]
	max_words = 16
	max_alternatives = 16
	fallback_threshold = 5

	[server]
	max_limit = 64

	[dict]
	dir = "data"
	chunks = 0
	word_lists = ["extra.txt"]
	user_list = "user.txt"

# Flags

	-config string
	    Path to a config file
	-data string
	    Directory with chunk files and word lists (default from config)
	-chunks int
	    Number of chunks to load, 0 for all (default from config)
	-words string
	    Extra text word list to load into the main dictionary
	-c  Run the interactive CLI instead of the server
	-d  Enable debug logging
	-pack string
	    Write chunk files from a text word list and exit
	-chunk-size int
	    Words per chunk written by -pack
	-rebuild-config
	    Rewrite the default config file and exit
	-version
	    Show the version
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bastiangx/smartdict/internal/cli"
	"github.com/bastiangx/smartdict/internal/utils"
	"github.com/bastiangx/smartdict/pkg/config"
	"github.com/bastiangx/smartdict/pkg/dictionary"
	"github.com/bastiangx/smartdict/pkg/learn"
	"github.com/bastiangx/smartdict/pkg/server"
	"github.com/bastiangx/smartdict/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "smartdict"
	gh      = "https://github.com/bastiangx/smartdict"
)

func main() {
	configFile := flag.String("config", "", "Path to a custom config file")
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "", "Directory containing chunk files and word lists")
	chunks := flag.Int("chunks", -1, "Number of chunks to load, 0 for all (default from config)")
	wordList := flag.String("words", "", "Extra text word list for the main dictionary")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	packList := flag.String("pack", "", "Write chunk files from this text word list and exit")
	chunkSize := flag.Int("chunk-size", dictionary.DefaultChunkSize, "Words per chunk written by -pack")
	rebuildConfig := flag.Bool("rebuild-config", false, "Rewrite the default config file and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuildConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Config rebuilt at %s\n", path)
		return
	}

	cfg, cfgPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(cfgPath))
	if *chunks >= 0 {
		cfg.Dict.Chunks = *chunks
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	dir := *dataDir
	if dir == "" {
		dir = cfg.Dict.Dir
	}
	resolvedDataDir := pathResolver.GetDataDir(dir)
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	if *packList != "" {
		if err := pack(*packList, resolvedDataDir, *chunkSize); err != nil {
			log.Fatalf("Failed to pack %s: %v", *packList, err)
		}
		return
	}

	settings := cfg.Settings()
	main := suggest.NewDictionary(server.MainDict, settings)
	loader, hasChunks := primeMain(main, cfg, resolvedDataDir, *wordList)

	user := suggest.NewDictionary(server.UserDict, settings)
	userList := resolvePath(resolvedDataDir, cfg.Dict.UserList)
	if userList != "" {
		if err := loadUserList(user, userList); err != nil {
			log.Warnf("User list not loaded: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *cliMode {
		log.SetReportTimestamp(false)
		var learner *learn.Learner
		if cfg.Dict.Learn {
			learner = learn.New(main, suggest.NewDictionary(server.AutoDict, settings), user)
			learner.AutoAddToUser = cfg.Dict.AutoAddToUser
		}
		runUntilDone(ctx, func() error {
			return cli.NewInputHandler(main, user, learner, cfg).WithLoader(loader).Start()
		})
		saveUserList(user, userList)
		return
	}

	opts := []server.Option{server.WithUserDictionary(user)}
	if hasChunks {
		opts = append(opts, server.WithRuntimeLoader(dictionary.NewRuntimeLoader(loader, main)))
	}
	srv := server.NewServer(cfg, cfgPath, main, opts...)
	log.Debugf("Server ready: pid %d, %d words", os.Getpid(), main.Stats()["words"])

	runUntilDone(ctx, func() error { return srv.Start(ctx) })
	saveUserList(user, userList)
}

// runUntilDone runs fn until it returns or ctx is cancelled. Reads from
// stdin cannot be interrupted, so a signal abandons fn.
func runUntilDone(ctx context.Context, fn func() error) {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		if err != nil {
			log.Errorf("Exited with error: %v", err)
		}
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
	}
}

// primeMain loads chunks and text word lists into main. It reports whether
// any chunk was loaded, in which case the loader can resize main later.
func primeMain(main *suggest.Dictionary, cfg *config.Config, dataDir, extraList string) (*dictionary.Loader, bool) {
	loader := dictionary.NewLoader(dataDir)
	loaded, err := loader.LoadChunks(cfg.Dict.Chunks)
	switch {
	case errors.Is(err, dictionary.ErrNoChunks):
		log.Debugf("No chunk files in %s", dataDir)
	case err != nil:
		log.Errorf("Failed to load chunks: %v", err)
	}

	lists := make([]string, 0, len(cfg.Dict.WordLists)+1)
	for _, name := range cfg.Dict.WordLists {
		lists = append(lists, resolvePath(dataDir, name))
	}
	if extraList != "" {
		lists = append(lists, extraList)
	}
	for _, path := range lists {
		if err := dictionary.ValidateFormat(path, dictionary.FormatText); err != nil {
			log.Warnf("Skipping word list: %v", err)
			continue
		}
		if _, err := loader.LoadText(path); err != nil {
			log.Warnf("Skipping word list: %v", err)
		}
	}

	primed, err := main.Prime(loader.Pairs())
	if err != nil {
		log.Fatalf("Failed to prime main dictionary: %v", err)
	}
	if primed == 0 {
		log.Warn("No words loaded, running with an empty main dictionary")
	}
	log.Debugf("Main dictionary primed with %d words from %d chunks", primed, loaded)
	return loader, loaded > 0
}

func resolvePath(dataDir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}

func loadUserList(user *suggest.Dictionary, path string) error {
	if !utils.FileExists(path) {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := dictionary.ReadText(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, e := range entries {
		if err := user.AddWord(e.Word, e.Frequency); err != nil {
			log.Warnf("User word %q: %v", e.Word, err)
		}
	}
	log.Debugf("User list %s loaded: %d words", path, len(entries))
	return nil
}

// saveUserList writes user back to path. A closed dictionary has lost its
// words, so the file on disk is left as is.
func saveUserList(user *suggest.Dictionary, path string) {
	if path == "" {
		return
	}
	if user.Closed() {
		log.Warnf("User dictionary is closed, not saving %s", path)
		return
	}
	var entries []dictionary.Entry
	user.Walk(func(word string, frequency int) bool {
		entries = append(entries, dictionary.Entry{Word: word, Frequency: frequency})
		return true
	})
	if len(entries) == 0 && !utils.FileExists(path) {
		return
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		log.Errorf("Failed to save user list: %v", err)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Errorf("Failed to save user list: %v", err)
		return
	}
	if err := dictionary.WriteText(f, entries); err != nil {
		log.Errorf("Failed to save user list: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Errorf("Failed to save user list: %v", err)
	}
}

func pack(listPath, dataDir string, chunkSize int) error {
	format, err := dictionary.DetectFormat(listPath)
	if err != nil {
		return err
	}
	if format != dictionary.FormatText {
		return fmt.Errorf("%s is a %s, not a word list", listPath, format)
	}
	f, err := os.Open(listPath)
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := dictionary.ReadText(f)
	if err != nil {
		return err
	}
	n, err := dictionary.Pack(entries, dataDir, chunkSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d chunks to %s\n", n, dataDir)
	return nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ smartdict ] Suggestions for what you meant to type")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}
