package markov

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModel_TrigramRowsAreDistributions(t *testing.T) {
	m := buildTestModel(t, "banana", "bandana", "cabana", "nab", "abba")
	n := m.Alphabet().Size()
	sums := NewReducer(n, 1).SumAxis2(m.Counts())

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row := m.Trigram().Row(i, j)
			if sums.At(i, j) == 0 {
				for _, p := range row {
					require.Equal(t, 0.0, p)
				}
				continue
			}
			total := 0.0
			for _, p := range row {
				require.GreaterOrEqual(t, p, 0.0)
				require.LessOrEqual(t, p, 1.0)
				total += p
			}
			require.InDelta(t, 1.0, total, 1e-9, "context (%d,%d)", i, j)
		}
	}
}

func TestModel_TrigramValues(t *testing.T) {
	m := buildTestModel(t, "cat", "car", "can")
	a := m.Alphabet()
	c, at := a.Index('c'), a.Index('a')

	require.Equal(t, 1.0, m.Trigram().At(0, 0, c))
	require.Equal(t, 1.0, m.Trigram().At(0, c, at))
	for _, r := range "trn" {
		require.InDelta(t, 1.0/3, m.Trigram().At(c, at, a.Index(r)), 1e-12)
	}
}

func TestModel_Bigram(t *testing.T) {
	m := buildTestModel(t, "ab", "ac", "b")
	a := m.Alphabet()
	ia, ib, ic := a.Index('a'), a.Index('b'), a.Index('c')

	// From the sentinel: a twice, b once.
	require.InDelta(t, math.Pow(2.0/3, BigramExponent), m.Bigram().At(0, ia), 1e-12)
	require.InDelta(t, math.Pow(1.0/3, BigramExponent), m.Bigram().At(0, ib), 1e-12)
	// From a: b once, c once.
	require.InDelta(t, math.Pow(0.5, BigramExponent), m.Bigram().At(ia, ib), 1e-12)
	require.InDelta(t, math.Pow(0.5, BigramExponent), m.Bigram().At(ia, ic), 1e-12)
	// c always ends the word.
	require.Equal(t, 1.0, m.Bigram().At(ic, 0))
	// Never observed.
	require.Equal(t, 0.0, m.Bigram().At(ic, ia))
}

func TestModel_Idempotent(t *testing.T) {
	words := benchmarkCorpus()
	if len(words) > 200 {
		words = words[:200]
	}
	first := Build(NewCorpus(words), WithWorkers(1))
	second := Build(NewCorpus(words), WithWorkers(8))

	require.Equal(t, first.Alphabet().Runes(), second.Alphabet().Runes())
	require.Equal(t, first.Trigram(), second.Trigram())
	require.Equal(t, first.Bigram(), second.Bigram())
}

func TestModel_BuildProgress(t *testing.T) {
	var last float64
	Build(NewCorpus([]string{"a", "b"}), WithBuildProgress(func(r float64) { last = r }))
	require.Equal(t, 1.0, last)
}

func BenchmarkBuild(b *testing.B) {
	c := NewCorpus(benchmarkCorpus())
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("Workers%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Build(c, WithWorkers(workers))
			}
		})
	}
}
