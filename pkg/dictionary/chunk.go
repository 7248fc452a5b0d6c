package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Chunk files are named dict_NNNN.bin. Each holds an int32 LE entry count
// followed by entries of uint16 LE length, the UTF-8 word, and a uint16 LE
// rank where rank 1 is the most common word.

const (
	chunkPrefix = "dict_"
	chunkSuffix = ".bin"
	// maxChunkEntries bounds the header so a corrupt file cannot trigger a
	// huge allocation.
	maxChunkEntries = 1000000
)

// ErrBadChunk is returned when a chunk file cannot be decoded.
var ErrBadChunk = errors.New("malformed chunk")

type rankedWord struct {
	word string
	rank int
}

// ChunkName returns the file name of chunk id.
func ChunkName(id int) string {
	return fmt.Sprintf("%s%04d%s", chunkPrefix, id, chunkSuffix)
}

// chunkID extracts the id from a chunk file name.
func chunkID(path string) (int, bool) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, chunkPrefix) || !strings.HasSuffix(base, chunkSuffix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, chunkPrefix), chunkSuffix))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func readChunkHeader(r io.Reader) (int, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, fmt.Errorf("failed to read chunk header: %w", err)
	}
	if count < 0 || count > maxChunkEntries {
		return 0, fmt.Errorf("%w: entry count %d", ErrBadChunk, count)
	}
	return int(count), nil
}

func readChunk(r io.Reader) ([]rankedWord, error) {
	br := bufio.NewReader(r)
	count, err := readChunkHeader(br)
	if err != nil {
		return nil, err
	}

	words := make([]rankedWord, 0, count)
	for range count {
		var wordLen uint16
		if err := binary.Read(br, binary.LittleEndian, &wordLen); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read word length: %w", err)
		}
		buf := make([]byte, wordLen)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("failed to read word: %w", err)
		}
		var rank uint16
		if err := binary.Read(br, binary.LittleEndian, &rank); err != nil {
			return nil, fmt.Errorf("failed to read rank: %w", err)
		}
		if wordLen == 0 || rank == 0 {
			continue
		}
		words = append(words, rankedWord{word: string(buf), rank: int(rank)})
	}
	return words, nil
}

// WriteChunk encodes words as one chunk. words[i] gets rank firstRank+i.
func WriteChunk(w io.Writer, words []string, firstRank int) error {
	if firstRank < 1 || firstRank+len(words)-1 > math.MaxUint16 {
		return fmt.Errorf("%w: ranks %d..%d out of range", ErrBadChunk, firstRank, firstRank+len(words)-1)
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(words))); err != nil {
		return err
	}
	for i, word := range words {
		if len(word) > math.MaxUint16 {
			return fmt.Errorf("%w: word %q too long", ErrBadChunk, word)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(word))); err != nil {
			return err
		}
		if _, err := bw.WriteString(word); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(firstRank+i)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// RankFrequency maps a rank onto 1..255, rank 1 being 255 and maxRank the
// lowest.
func RankFrequency(rank, maxRank int) int {
	if rank < 1 {
		return 0
	}
	if maxRank < rank {
		maxRank = rank
	}
	return max(maxFrequency-(rank-1)*maxFrequency/maxRank, 1)
}
