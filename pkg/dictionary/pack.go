package dictionary

import (
	"cmp"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
)

// DefaultChunkSize is the number of words Pack puts in each chunk.
const DefaultChunkSize = 10000

// Pack ranks entries by frequency, most frequent first, and writes them to
// dir as consecutive chunks of chunkSize words. It returns the number of
// chunk files written.
func Pack(entries []Entry, dir string, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if len(entries) > math.MaxUint16 {
		log.Warnf("Only the %d most frequent of %d words fit in chunk ranks", math.MaxUint16, len(entries))
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(b.Frequency, a.Frequency)
	})
	words := make([]string, 0, min(len(sorted), math.MaxUint16))
	for _, e := range sorted {
		if e.Word == "" || len(words) == math.MaxUint16 {
			continue
		}
		words = append(words, e.Word)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}
	written := 0
	for start := 0; start < len(words); start += chunkSize {
		end := min(start+chunkSize, len(words))
		written++
		if err := writeChunkFile(filepath.Join(dir, ChunkName(written)), words[start:end], start+1); err != nil {
			return written - 1, err
		}
	}
	log.Debugf("Packed %d words into %d chunks in %s", len(words), written, dir)
	return written, nil
}

func writeChunkFile(path string, words []string, firstRank int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteChunk(f, words, firstRank); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
