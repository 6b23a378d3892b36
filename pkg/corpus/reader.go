package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/wordmachine/pkg/markov"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DataDir is the fallback directory searched by ReadFile when a path does not
// exist relative to the working directory.
const DataDir = "data"

// maxLineLength bounds a single line of a word list.
const maxLineLength = 1 << 20

// Encoding resolves an encoding label such as "utf-8", "latin1" or
// "windows-1252". An empty label selects UTF-8.
func Encoding(label string) (encoding.Encoding, error) {
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return enc, nil
}

// ReadWords decodes r with the named encoding and returns one word per
// non-empty line, surrounding whitespace removed.
func ReadWords(r io.Reader, encodingLabel string) ([]string, error) {
	enc, err := Encoding(encodingLabel)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(transform.NewReader(r, enc.NewDecoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var words []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			words = append(words, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return words, nil
}

// ReadFile reads a word list from path, falling back to DataDir/path.
func ReadFile(path, encodingLabel string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !filepath.IsAbs(path) {
		f, err = os.Open(filepath.Join(DataDir, path))
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return ReadWords(f, encodingLabel)
}

// Load reads path and returns it as a markov.Corpus.
func Load(path, encodingLabel string) (*markov.Corpus, error) {
	words, err := ReadFile(path, encodingLabel)
	if err != nil {
		return nil, err
	}
	return markov.NewCorpus(words), nil
}
