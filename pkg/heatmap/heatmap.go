// Package heatmap draws a bigram probability matrix as an SVG heat-map.
//
// Rows are the preceding character and columns the following one. The word
// boundary is labelled ␂ on the row axis and ␃ on the column axis. A cell
// with probability zero is black; other cells go from blue (P near 0) to red
// (P = 1) along the HSV hue wheel.
package heatmap

import (
	"fmt"
	"html"
	"image/color"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/CTAG07/wordmachine/pkg/markov"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// CellSize is the side of one matrix cell in pixels.
	CellSize = 24

	fontSize = 20

	// legendMinWidth keeps room for "P = 0", the black swatch, a gradient
	// and the "1" label on very small alphabets.
	legendMinWidth = 6 * CellSize

	rowLabel = '␂'
	colLabel = '␃'
)

// Options controls the rendering.
type Options struct {
	// Title is drawn centred above the legend. Empty draws nothing.
	Title string
	// SkipDigits leaves decimal digits out of both axes.
	SkipDigits bool
	// Language selects the collation used to order the axes. The zero value
	// uses the root collation.
	Language language.Tag
}

// RenderSVG writes the heat-map of m, indexed by a, to w.
func RenderSVG(w io.Writer, a *markov.Alphabet, m markov.Matrix[float64], opts Options) error {
	_, err := io.WriteString(w, RenderString(a, m, opts))
	return err
}

// RenderString returns the heat-map of m as an SVG document.
func RenderString(a *markov.Alphabet, m markov.Matrix[float64], opts Options) string {
	order := axisOrder(a, opts)
	n := len(order)
	span := n*CellSize + CellSize
	width := max(span, legendMinWidth)
	height := span + 2*CellSize

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	sb.WriteString(`<defs><linearGradient id="legend" x1="0" y1="0" x2="1" y2="0">`)
	// Between multiples of 60° the HSV wheel is linear in RGB, so five stops
	// reproduce the 240° to 0° sweep exactly.
	for i := 0; i <= 4; i++ {
		_, _ = fmt.Fprintf(&sb, `<stop offset="%g" stop-color="%s"/>`, float64(i)/4, hex(HSV(240-60*float64(i), 1, 1)))
	}
	sb.WriteString(`</linearGradient></defs>`)
	_, _ = fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="#ffffff"/>`, width, height)
	_, _ = fmt.Fprintf(&sb, `<g font-family="Consolas, monospace" font-size="%d" text-anchor="middle" fill="#000000">`, fontSize)

	if opts.Title != "" {
		text(&sb, float64(width)/2, 0, opts.Title)
	}
	text(&sb, 0.5*CellSize, CellSize, "P")
	text(&sb, 1.5*CellSize, CellSize, "=")
	text(&sb, 2.5*CellSize, CellSize, "0")
	_, _ = fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="#000000"/>`, 3*CellSize, CellSize, CellSize, CellSize)
	_, _ = fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="url(#legend)"/>`, 4*CellSize, CellSize, width-5*CellSize, CellSize)
	text(&sb, float64(width)-0.5*CellSize, CellSize, "1")

	for pos, idx := range order {
		row, col := string(a.Rune(idx)), string(a.Rune(idx))
		if idx == 0 {
			row, col = string(rowLabel), string(colLabel)
		}
		text(&sb, 0.5*CellSize, float64((3+pos)*CellSize), row)
		text(&sb, float64(1+pos)*CellSize+0.5*CellSize, 2*CellSize, col)
	}
	sb.WriteString(`</g>`)

	for pi, i := range order {
		for pj, j := range order {
			fill := "#000000"
			if p := m.At(i, j); p != 0 {
				fill = hex(HSV((1-p)*240, 1, 1))
			}
			_, _ = fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
				(1+pj)*CellSize, (3+pi)*CellSize, CellSize, CellSize, fill)
		}
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// axisOrder returns the alphabet indices to draw, sentinel first and the rest
// in collation order.
func axisOrder(a *markov.Alphabet, opts Options) []int {
	order := make([]int, 0, a.Size())
	for i := 1; i < a.Size(); i++ {
		if opts.SkipDigits && unicode.IsDigit(a.Rune(i)) {
			continue
		}
		order = append(order, i)
	}

	col := collate.New(opts.Language)
	sort.SliceStable(order, func(x, y int) bool {
		rx, ry := a.Rune(order[x]), a.Rune(order[y])
		if c := col.CompareString(string(rx), string(ry)); c != 0 {
			return c < 0
		}
		return rx < ry
	})
	return append([]int{0}, order...)
}

// text draws s centred in the cell-high band whose top edge is y.
func text(sb *strings.Builder, x, y float64, s string) {
	_, _ = fmt.Fprintf(sb, `<text x="%g" y="%g">%s</text>`, x, y+0.75*CellSize, html.EscapeString(s))
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HSV converts a hue in degrees (wrapped into [0, 360)), a saturation and a
// value in [0, 1] to an opaque RGB colour.
func HSV(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	var r, g, b float64
	switch {
	case v <= 0:
	case s <= 0:
		r, g, b = v, v, v
	default:
		hf := h / 60
		i := math.Floor(hf)
		f := hf - i
		p := v * (1 - s)
		q := v * (1 - s*f)
		t := v * (1 - s*(1-f))
		switch int(i) % 6 {
		case 0:
			r, g, b = v, t, p
		case 1:
			r, g, b = q, v, p
		case 2:
			r, g, b = p, v, t
		case 3:
			r, g, b = p, q, v
		case 4:
			r, g, b = t, p, v
		default:
			r, g, b = v, p, q
		}
	}
	return color.RGBA{R: channel(r), G: channel(g), B: channel(b), A: 0xff}
}

func channel(x float64) uint8 {
	return uint8(math.Max(0, math.Min(255, x*255)))
}
