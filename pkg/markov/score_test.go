package markov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	m := buildTestModel(t, "ab", "ac", "b")

	// sentinel->a, a->b, b->sentinel
	want := math.Pow(
		math.Pow(2.0/3, BigramExponent)*math.Pow(0.5, BigramExponent)*1,
		1.0/3)
	require.InDelta(t, want, m.Score("ab"), 1e-12)
	require.InDelta(t, want, m.Score("AB"), 1e-12)
	require.Equal(t, 0.0, m.Score("ca"), "no word starts with c")
}

func TestScore_UnknownCharactersSkipped(t *testing.T) {
	m := buildTestModel(t, "ab")
	// "xab" walks the same cells as "ab" but the root is taken over 4 characters.
	p := math.Pow(m.Score("ab"), 3)
	require.InDelta(t, math.Pow(p, 1.0/4), m.Score("xab"), 1e-12)
}
