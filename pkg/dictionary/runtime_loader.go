package dictionary

import (
	"fmt"
	"iter"
	"sync"

	"github.com/charmbracelet/log"
)

// Primer is anything that can drop its words and load a fresh set.
type Primer interface {
	Reload(pairs iter.Seq2[string, int]) (int, error)
}

// RuntimeLoader grows or shrinks the set of loaded chunks while serving and
// re-primes its target after every change.
type RuntimeLoader struct {
	loader *Loader
	target Primer
	mu     sync.Mutex
}

// SizeOption is one selectable dictionary size.
type SizeOption struct {
	ChunkCount int    `msgpack:"chunks" json:"chunkCount"`
	WordCount  int    `msgpack:"words" json:"wordCount"`
	SizeLabel  string `msgpack:"label" json:"sizeLabel"`
}

// NewRuntimeLoader creates a runtime loader priming target from loader.
func NewRuntimeLoader(loader *Loader, target Primer) *RuntimeLoader {
	return &RuntimeLoader{loader: loader, target: target}
}

// SetSize loads or evicts chunks until exactly n are loaded, lowest ids
// first, then re-primes the target. It returns the number of words primed.
func (rl *RuntimeLoader) SetSize(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("minimum dictionary size is 1 chunk")
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	chunks, err := rl.loader.Available()
	if err != nil {
		return 0, err
	}
	if n > len(chunks) {
		return 0, fmt.Errorf("%w: %d requested, %d available", ErrNoChunks, n, len(chunks))
	}

	want := make(map[int]bool, n)
	for _, c := range chunks[:n] {
		want[c.ID] = true
	}
	for _, id := range rl.loader.LoadedIDs() {
		if !want[id] {
			if err := rl.loader.Evict(id); err != nil {
				log.Warnf("Failed to unload chunk %d: %v", id, err)
			}
		}
	}
	for id := range want {
		if err := rl.loader.Load(id); err != nil {
			return 0, err
		}
	}

	primed, err := rl.target.Reload(rl.loader.Pairs())
	if err != nil {
		return 0, err
	}
	log.Debugf("Dictionary resized to %d chunks, %d words", n, primed)
	return primed, nil
}

// SizeOptions lists the cumulative word counts of the available chunks.
func (rl *RuntimeLoader) SizeOptions() ([]SizeOption, error) {
	chunks, err := rl.loader.Available()
	if err != nil {
		return nil, err
	}

	options := make([]SizeOption, 0, len(chunks))
	total := 0
	for i, c := range chunks {
		total += c.WordCount
		options = append(options, SizeOption{
			ChunkCount: i + 1,
			WordCount:  total,
			SizeLabel:  sizeLabel(total),
		})
	}
	return options, nil
}

func sizeLabel(words int) string {
	if words < 1000 {
		return fmt.Sprintf("%d words", words)
	}
	return fmt.Sprintf("%dK words", words/1000)
}

// Stats reports the state of the underlying loader.
func (rl *RuntimeLoader) Stats() LoaderStats {
	return rl.loader.Stats()
}
