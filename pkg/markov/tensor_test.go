package markov

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountTrigrams(t *testing.T) {
	c := NewCorpus([]string{"ab", "abb"})
	a := NewAlphabet(c)
	counts := CountTrigrams(c, a, nil)

	ia, ib := a.Index('a'), a.Index('b')
	require.Equal(t, 2, counts.At(0, 0, ia))
	require.Equal(t, 2, counts.At(0, ia, ib))
	require.Equal(t, 1, counts.At(ia, ib, 0))
	require.Equal(t, 1, counts.At(ia, ib, ib))
	require.Equal(t, 1, counts.At(ib, ib, 0))

	total := 0
	for _, v := range counts.Cells {
		total += v
	}
	require.Equal(t, (2+1)+(3+1), total, "each word contributes len+1 increments")
}

func TestCountTrigrams_ContextSums(t *testing.T) {
	words := []string{"banana", "bandana", "cabana", "nab"}
	c := NewCorpus(words)
	a := NewAlphabet(c)
	counts := CountTrigrams(c, a, nil)
	sums := NewReducer(a.Size(), 1).SumAxis2(counts)

	// Count every (prev2, prev1) context directly.
	want := make(map[[2]int]int)
	for _, w := range c.Words() {
		p2, p1 := 0, 0
		for _, r := range w + string(Sentinel) {
			want[[2]int{p2, p1}]++
			p2, p1 = p1, a.Index(r)
		}
	}
	for i := 0; i < a.Size(); i++ {
		for j := 0; j < a.Size(); j++ {
			require.Equal(t, want[[2]int{i, j}], sums.At(i, j), "context (%d,%d)", i, j)
		}
	}
}

func TestCountTrigrams_Progress(t *testing.T) {
	c := NewCorpus([]string{"one", "two", "three"})
	var reports []float64
	CountTrigrams(c, NewAlphabet(c), func(ratio float64) {
		reports = append(reports, ratio)
	})
	require.NotEmpty(t, reports)
	require.Equal(t, 1.0, reports[len(reports)-1])
	for i, r := range reports {
		require.GreaterOrEqual(t, r, 0.0)
		require.LessOrEqual(t, r, 1.0)
		if i > 0 {
			require.GreaterOrEqual(t, r, reports[i-1])
		}
	}
}

func TestCountTrigrams_EmptyCorpus(t *testing.T) {
	c := NewCorpus(nil)
	counts := CountTrigrams(c, NewAlphabet(c), nil)
	require.Equal(t, 1, counts.N)
	require.Equal(t, []int{0}, counts.Cells)
}

func TestCountTrigrams_BlankWordsIgnored(t *testing.T) {
	// Blank lines and words made only of NUL never reach the tensor, so the
	// boundary-to-boundary cell stays zero.
	c := NewCorpus([]string{"", "\x00", "ab"})
	require.Equal(t, 1, c.Len())
	counts := CountTrigrams(c, NewAlphabet(c), nil)
	require.Zero(t, counts.At(0, 0, 0))
	total := 0
	for _, v := range counts.Cells {
		total += v
	}
	require.Equal(t, 3, total)
}
