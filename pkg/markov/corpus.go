package markov

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Corpus is an immutable, deduplicated set of lowercase words. Insertion order
// is kept so that alphabet discovery is reproducible for a given input order.
type Corpus struct {
	words []string
	set   map[string]struct{}
}

// NewCorpus normalises (NFC), lowercases and deduplicates words. The NUL rune
// is stripped because it is reserved for the boundary sentinel. Empty lines
// are kept out.
func NewCorpus(words []string) *Corpus {
	c := &Corpus{
		words: make([]string, 0, len(words)),
		set:   make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		w = Normalize(w)
		if w == "" {
			continue
		}
		if _, ok := c.set[w]; ok {
			continue
		}
		c.set[w] = struct{}{}
		c.words = append(c.words, w)
	}
	return c
}

// Normalize applies the ingestion transform used for every corpus word.
func Normalize(w string) string {
	w = strings.ReplaceAll(w, "\x00", "")
	return strings.ToLower(norm.NFC.String(w))
}

// Len returns the number of distinct words.
func (c *Corpus) Len() int {
	return len(c.words)
}

// Contains reports whether w (already normalised) is a corpus word.
func (c *Corpus) Contains(w string) bool {
	_, ok := c.set[w]
	return ok
}

// Words returns a copy of the words in insertion order.
func (c *Corpus) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}
