package markov

// Sentinel is the rune stored at index 0 of every alphabet. It marks the word
// boundary and never appears inside a corpus word.
const Sentinel rune = 0

// Alphabet maps the characters of a corpus to stable integer indices.
// Index 0 is always the Sentinel.
type Alphabet struct {
	runes []rune
	index map[rune]int
}

// NewAlphabet assigns indices in order of first sighting, walking every
// character of every word in corpus order. An empty corpus yields an alphabet
// holding only the sentinel.
func NewAlphabet(c *Corpus) *Alphabet {
	a := &Alphabet{
		runes: []rune{Sentinel},
		index: map[rune]int{Sentinel: 0},
	}
	for _, w := range c.words {
		for _, r := range w {
			if _, ok := a.index[r]; !ok {
				a.index[r] = len(a.runes)
				a.runes = append(a.runes, r)
			}
		}
	}
	return a
}

// Size returns the number of indices, sentinel included.
func (a *Alphabet) Size() int {
	return len(a.runes)
}

// Rune returns the character at index i. Index 0 returns the Sentinel.
func (a *Alphabet) Rune(i int) rune {
	return a.runes[i]
}

// Index returns the index of r, or -1 when r is not part of the alphabet.
func (a *Alphabet) Index(r rune) int {
	if i, ok := a.index[r]; ok {
		return i
	}
	return -1
}

// Runes returns a copy of the alphabet, sentinel first.
func (a *Alphabet) Runes() []rune {
	out := make([]rune, len(a.runes))
	copy(out, a.runes)
	return out
}
