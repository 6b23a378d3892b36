package markov

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightedChoice(t *testing.T) {
	testCases := []struct {
		name string
		p    []float64
		draw float64
		want int
	}{
		{name: "First bucket", p: []float64{0.2, 0.3, 0.5}, draw: 0.1, want: 0},
		{name: "Boundary goes to next", p: []float64{0.2, 0.3, 0.5}, draw: 0.2, want: 1},
		{name: "Last bucket", p: []float64{0.2, 0.3, 0.5}, draw: 0.99, want: 2},
		{name: "Zero mass skipped", p: []float64{0, 0, 1}, draw: 0, want: 2},
		{name: "Residual mass falls back to sentinel", p: []float64{0, 0.3, 0.3}, draw: 0.9, want: 0},
		{name: "Unobserved context", p: []float64{0, 0, 0}, draw: 0.5, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedChoice(tc.p, &sequenceSource{draws: []float64{tc.draw}})
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSources(t *testing.T) {
	a, b := NewSeededSource(9), NewSeededSource(9)
	for i := 0; i < 16; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}

	var c CryptoSource
	for i := 0; i < 64; i++ {
		v := c.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}
