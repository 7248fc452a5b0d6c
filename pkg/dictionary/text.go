package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// maxFrequency is the ceiling of the frequencies produced by this package.
const maxFrequency = 255

// Entry is one word with its frequency.
type Entry struct {
	Word      string
	Frequency int
}

// ReadText parses a plain word list. Each line holds a word optionally
// followed by whitespace and a frequency. Blank lines and lines starting
// with '#' are skipped. A missing frequency counts as 1; values are clamped
// to 0..255.
func ReadText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		freq := 1
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				log.Warnf("line %d: bad frequency %q, using 1", line, fields[1])
			} else {
				freq = min(max(n, 0), maxFrequency)
			}
		}
		entries = append(entries, Entry{Word: fields[0], Frequency: freq})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return entries, nil
}

// WriteText writes entries in the format ReadText accepts.
func WriteText(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", e.Word, e.Frequency); err != nil {
			return err
		}
	}
	return bw.Flush()
}
