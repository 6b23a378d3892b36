package markov

import (
	"math"
	"unicode/utf8"
)

// Score rates how well word fits the model: the geometric mean of the bigram
// matrix cells along lower(word) followed by the sentinel, starting from the
// sentinel. Characters outside the alphabet are skipped. The result is in [0, 1].
func (m *Model) Score(word string) float64 {
	word = Normalize(word)
	p := 1.0
	last := 0
	step := func(idx int) {
		if idx < 0 {
			return
		}
		p *= m.bigram.At(last, idx)
		last = idx
	}
	for _, r := range word {
		step(m.alphabet.Index(r))
	}
	step(0)
	return math.Pow(p, 1/float64(utf8.RuneCountInString(word)+1))
}
