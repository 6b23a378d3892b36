package heatmap

import (
	"bytes"
	"encoding/xml"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/CTAG07/wordmachine/pkg/markov"
	"github.com/stretchr/testify/require"
)

func TestHSV(t *testing.T) {
	testCases := []struct {
		name string
		h    float64
		want color.RGBA
	}{
		{"red", 0, color.RGBA{255, 0, 0, 255}},
		{"yellow", 60, color.RGBA{255, 255, 0, 255}},
		{"green", 120, color.RGBA{0, 255, 0, 255}},
		{"cyan", 180, color.RGBA{0, 255, 255, 255}},
		{"blue", 240, color.RGBA{0, 0, 255, 255}},
		{"wrapped", 360, color.RGBA{255, 0, 0, 255}},
		{"negative", -120, color.RGBA{0, 0, 255, 255}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, HSV(tc.h, 1, 1))
		})
	}

	require.Equal(t, color.RGBA{0, 0, 0, 255}, HSV(90, 1, 0))
	require.Equal(t, color.RGBA{127, 127, 127, 255}, HSV(90, 0, 0.5))
}

func TestAxisOrder(t *testing.T) {
	a := markov.NewAlphabet(markov.NewCorpus([]string{"zb2a", "é"}))
	order := axisOrder(a, Options{})

	runes := make([]rune, len(order))
	for i, idx := range order {
		runes[i] = a.Rune(idx)
	}
	require.Equal(t, []rune{markov.Sentinel, '2', 'a', 'b', 'é', 'z'}, runes)

	order = axisOrder(a, Options{SkipDigits: true})
	require.Len(t, order, 5)
	require.Equal(t, 0, order[0])
	for _, idx := range order {
		require.NotEqual(t, '2', a.Rune(idx))
	}
}

func TestRenderSVG(t *testing.T) {
	m := markov.Build(markov.NewCorpus([]string{"ab", "a<"}), markov.WithWorkers(1))

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, m.Alphabet(), m.Bigram(), Options{Title: "twm"}))
	out := buf.String()

	// Well-formed XML even with markup characters in the alphabet.
	decoder := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := decoder.Token()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}

	require.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="144" height="168"`))
	require.Contains(t, out, ">twm</text>")
	require.Contains(t, out, ">␂</text>")
	require.Contains(t, out, ">␃</text>")
	require.Contains(t, out, ">&lt;</text>")
	require.Contains(t, out, `fill="url(#legend)"`)

	// 4 symbols -> 16 cells, plus background, black swatch and gradient bar.
	require.Equal(t, 16+3, strings.Count(out, "<rect "))
}

func TestRenderString_ZeroCellsAreBlack(t *testing.T) {
	a := markov.NewAlphabet(markov.NewCorpus([]string{"a"}))
	m := markov.NewMatrix[float64](2)
	m.Cells[0*2+1] = 1 // sentinel -> a

	out := RenderString(a, m, Options{})
	require.Contains(t, out, `<rect x="48" y="72" width="24" height="24" fill="#ff0000"/>`)
	require.Contains(t, out, `<rect x="24" y="72" width="24" height="24" fill="#000000"/>`)
	require.Contains(t, out, `<rect x="24" y="96" width="24" height="24" fill="#000000"/>`)
}
