package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// FileFormat identifies a word source on disk.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatChunk              // dict_NNNN.bin ranked chunk
	FormatText               // word<ws>frequency lines
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatChunk: {
		Format:      FormatChunk,
		Description: "Chunked Binary Dictionary",
		Extensions:  []string{".bin"},
		MinSize:     4,
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Word List",
		Extensions:  []string{".txt", ".dic"},
		MinSize:     1,
	},
}

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// ValidateFormat checks that filename looks like the expected format.
func ValidateFormat(filename string, expected FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expected]
	if !exists {
		return fmt.Errorf("unknown format: %v", expected)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, e := range formatInfo.Extensions {
		if ext == e {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expected {
	case FormatChunk:
		return validateChunk(filename)
	case FormatText:
		return validateText(filename)
	}
	return nil
}

func validateChunk(filename string) error {
	if _, ok := chunkID(filename); !ok {
		return fmt.Errorf("file %s is not named like a chunk (%s)", filename, ChunkName(1))
	}
	count, err := chunkWordCount(filename)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	log.Debugf("Chunk %s validated: %d words", filename, count)
	return nil
}

// validateText checks that the first line is UTF-8.
func validateText(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read from text file %s: %w", filename, err)
	}
	if !utf8.ValidString(line) {
		return fmt.Errorf("text file %s is not UTF-8", filename)
	}
	log.Debugf("Text file %s validated", filename)
	return nil
}

// DetectFormat guesses the format of filename from its name and content.
func DetectFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range []FileFormat{FormatChunk, FormatText} {
		for _, e := range supportedFormats[format].Extensions {
			if e == ext && ValidateFormat(filename, format) == nil {
				return format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}
