package dictionary

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ErrNoChunks is returned when a directory holds no chunk files.
var ErrNoChunks = errors.New("no chunk files found")

// Loader stages words from chunk files and text lists before they are primed
// into a dictionary. Entries are indexed in a patricia trie keyed by word;
// a word seen twice keeps its best rank and its highest frequency.
type Loader struct {
	dirPath      string
	loadedChunks map[int]bool
	chunkWords   map[int][]rankedWord
	textWords    map[string]int
	trie         *patricia.Trie
	maxRank      int
	mu           sync.RWMutex
}

// staged is the value stored in the patricia index. rank 0 means the word
// only came from a text list.
type staged struct {
	rank int
	freq int
}

// ChunkInfo describes a chunk file on disk.
type ChunkInfo struct {
	ID        int
	Filename  string
	WordCount int
}

// LoaderStats reports what the loader currently holds.
type LoaderStats struct {
	Words           int
	LoadedChunks    int
	AvailableChunks int
	TextWords       int
	MaxRank         int
}

// NewLoader creates a loader reading chunk files from dirPath.
func NewLoader(dirPath string) *Loader {
	return &Loader{
		dirPath:      dirPath,
		loadedChunks: make(map[int]bool),
		chunkWords:   make(map[int][]rankedWord),
		textWords:    make(map[string]int),
		trie:         patricia.NewTrie(),
	}
}

// Dir returns the chunk directory.
func (l *Loader) Dir() string { return l.dirPath }

// Available scans the directory for chunk files, sorted by id.
func (l *Loader) Available() ([]ChunkInfo, error) {
	files, err := filepath.Glob(filepath.Join(l.dirPath, chunkPrefix+"*"+chunkSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		id, ok := chunkID(file)
		if !ok {
			continue
		}
		count, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to get word count for chunk %s: %v", file, err)
		}
		chunks = append(chunks, ChunkInfo{ID: id, Filename: file, WordCount: count})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return chunks, nil
}

func chunkWordCount(filename string) (int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return readChunkHeader(f)
}

// LoadChunks loads the first n available chunks in id order, or all of them
// when n <= 0. It returns the number of chunks loaded by this call.
func (l *Loader) LoadChunks(n int) (int, error) {
	chunks, err := l.Available()
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoChunks, l.dirPath)
	}
	if n <= 0 || n > len(chunks) {
		n = len(chunks)
	}

	loaded := 0
	for _, c := range chunks[:n] {
		fresh, err := l.load(c.ID)
		if err != nil {
			return loaded, err
		}
		if fresh {
			loaded++
		}
	}
	log.Debugf("Loaded %d chunks from %s", loaded, l.dirPath)
	return loaded, nil
}

// Load loads chunk id. Loading a chunk twice is a no-op.
func (l *Loader) Load(id int) error {
	_, err := l.load(id)
	return err
}

func (l *Loader) load(id int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loadedChunks[id] {
		return false, nil
	}

	filename := filepath.Join(l.dirPath, ChunkName(id))
	f, err := os.Open(filename)
	if err != nil {
		return false, fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer f.Close()

	words, err := readChunk(f)
	if err != nil {
		return false, fmt.Errorf("chunk %d: %w", id, err)
	}
	for _, w := range words {
		l.stage(w.word, staged{rank: w.rank})
	}
	l.chunkWords[id] = words
	l.loadedChunks[id] = true
	log.Debugf("Chunk %d loaded: %d words", id, len(words))
	return true, nil
}

// LoadText stages every entry of a plain word list.
func (l *Loader) LoadText(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open word list %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ReadText(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	l.AddEntries(entries)
	log.Debugf("Word list %s loaded: %d words", path, len(entries))
	return len(entries), nil
}

// AddEntries stages entries that do not come from a file.
func (l *Loader) AddEntries(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		if cur, ok := l.textWords[e.Word]; !ok || e.Frequency > cur {
			l.textWords[e.Word] = e.Frequency
		}
		l.stage(e.Word, staged{freq: e.Frequency})
	}
}

// stage merges v into the index. Callers hold the lock.
func (l *Loader) stage(word string, v staged) {
	key := patricia.Prefix(word)
	if item := l.trie.Get(key); item != nil {
		cur := item.(staged)
		if v.rank == 0 || (cur.rank != 0 && cur.rank < v.rank) {
			v.rank = cur.rank
		}
		v.freq = max(v.freq, cur.freq)
		l.trie.Set(key, v)
	} else {
		l.trie.Insert(key, v)
	}
	l.maxRank = max(l.maxRank, v.rank)
}

// Evict drops chunk id and rebuilds the index from what remains.
func (l *Loader) Evict(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loadedChunks[id] {
		return fmt.Errorf("chunk %d is not loaded", id)
	}
	delete(l.loadedChunks, id)
	delete(l.chunkWords, id)
	l.rebuild()
	log.Debugf("Evicted chunk %d", id)
	return nil
}

// rebuild reconstructs the index from loaded chunks and text words.
func (l *Loader) rebuild() {
	l.trie = patricia.NewTrie()
	l.maxRank = 0
	for _, words := range l.chunkWords {
		for _, w := range words {
			l.stage(w.word, staged{rank: w.rank})
		}
	}
	for word, freq := range l.textWords {
		l.stage(word, staged{freq: freq})
	}
}

// LoadedIDs returns the loaded chunk ids in ascending order.
func (l *Loader) LoadedIDs() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]int, 0, len(l.loadedChunks))
	for id := range l.loadedChunks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Frequency returns the frequency a staged word would be primed with.
func (l *Loader) Frequency(word string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item := l.trie.Get(patricia.Prefix(word))
	if item == nil {
		return 0, false
	}
	return l.frequency(item.(staged)), true
}

func (l *Loader) frequency(v staged) int {
	return max(v.freq, RankFrequency(v.rank, l.maxRank))
}

// Pairs yields every staged word with its frequency. Ranks are scaled
// against the worst rank currently loaded.
func (l *Loader) Pairs() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		l.mu.RLock()
		defer l.mu.RUnlock()
		_ = l.trie.Visit(func(prefix patricia.Prefix, item patricia.Item) error {
			if !yield(string(prefix), l.frequency(item.(staged))) {
				return errStopVisit
			}
			return nil
		})
	}
}

// WithPrefix yields the staged words starting with prefix.
func (l *Loader) WithPrefix(prefix string) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		l.mu.RLock()
		defer l.mu.RUnlock()
		_ = l.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
			if !yield(string(p), l.frequency(item.(staged))) {
				return errStopVisit
			}
			return nil
		})
	}
}

var errStopVisit = errors.New("stop")

// Stats returns current loading statistics.
func (l *Loader) Stats() LoaderStats {
	chunks, _ := l.Available()

	l.mu.RLock()
	defer l.mu.RUnlock()
	words := 0
	_ = l.trie.Visit(func(patricia.Prefix, patricia.Item) error {
		words++
		return nil
	})
	return LoaderStats{
		Words:           words,
		LoadedChunks:    len(l.loadedChunks),
		AvailableChunks: len(chunks),
		TextWords:       len(l.textWords),
		MaxRank:         l.maxRank,
	}
}
