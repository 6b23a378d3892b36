package markov

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource yields uniform samples in [0, 1). *rand.Rand from math/rand/v2
// satisfies it.
type RandomSource interface {
	Float64() float64
}

// NewSeededSource returns a reproducible PCG stream.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// newDefaultSource returns an independently seeded stream for one generation call.
func newDefaultSource() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// CryptoSource draws from crypto/rand. It is slower than a PCG stream and not
// reproducible.
type CryptoSource struct{}

// Float64 returns a uniform sample built from 53 random bits.
func (CryptoSource) Float64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("markov: crypto/rand failed: " + err.Error())
	}
	return float64(binary.LittleEndian.Uint64(b[:])>>11) / (1 << 53)
}

// WeightedChoice accumulates p in index order and returns the first index whose
// cumulative probability exceeds a uniform draw. When rounding leaves the draw
// above the total mass, it returns 0 (the sentinel) so that sampling ends the word.
func WeightedChoice(p []float64, rng RandomSource) int {
	u := rng.Float64()
	cum := 0.0
	for i, v := range p {
		cum += v
		if u < cum {
			return i
		}
	}
	return 0
}
