package textlayout

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// DefaultLineHeight is the line advance as a multiple of the font size.
const DefaultLineHeight = 1.3

// Align anchors a line horizontally at its x coordinate.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style controls how Draw renders a block of text.
type Style struct {
	Size  float64
	Color color.Color
	Align Align
	// MaxWidth enables word wrapping when positive.
	MaxWidth float64
	// LineHeight defaults to DefaultLineHeight when zero.
	LineHeight float64
}

func (s Style) lineAdvance() float64 {
	lh := s.LineHeight
	if lh <= 0 {
		lh = DefaultLineHeight
	}
	return s.Size * lh
}

type faceKey struct {
	bold bool
	size float64
}

// Engine measures and draws text with a regular and a bold font. Faces are
// cached per size. An Engine serializes its own use of the faces and is safe
// for concurrent use.
type Engine struct {
	regular *truetype.Font
	bold    *truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// New parses the given TrueType fonts.
func New(regularTTF, boldTTF []byte) (*Engine, error) {
	reg, err := truetype.Parse(regularTTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(boldTTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Engine{regular: reg, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// NewDefault returns an Engine using the bundled Go fonts.
func NewDefault() *Engine {
	e, err := New(goregular.TTF, gobold.TTF)
	if err != nil {
		// the embedded fonts are known-good
		panic(err)
	}
	return e
}

func (e *Engine) face(bold bool, size float64) font.Face {
	k := faceKey{bold: bold, size: size}
	if f, ok := e.faces[k]; ok {
		return f
	}
	ttf := e.regular
	if bold {
		ttf = e.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	e.faces[k] = f
	return f
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func (e *Engine) measure(text string, bold bool, size float64) float64 {
	return toFloat(font.MeasureString(e.face(bold, size), text))
}

// Measure returns the rendered width of a single line, honoring bold markup.
func (e *Engine) Measure(line string, size float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.measureLine(ParseRuns(line), size)
}

func (e *Engine) measureLine(runs []Run, size float64) float64 {
	var w float64
	for _, r := range runs {
		w += e.measure(r.Text, r.Bold, size)
	}
	return w
}

// Wrap breaks text into lines no wider than maxWidth and returns them as
// markup. Words are split on whitespace and never broken; a word wider than
// maxWidth gets a line of its own. Widths honor each run's weight, and a
// bold run that crosses a break is closed and reopened so both lines stay
// bold. A non-positive maxWidth returns the text as one line.
func (e *Engine) Wrap(text string, maxWidth, size float64) []string {
	lines := e.wrap(text, maxWidth, size)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.String())
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (e *Engine) wrap(text string, maxWidth, size float64) []Line {
	runs := ParseRuns(text)
	if maxWidth <= 0 {
		if len(runs) == 0 {
			return nil
		}
		return []Line{runs}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var lines []Line
	var current []word
	for _, w := range splitWords(runs) {
		candidate := append(current[:len(current):len(current)], w)
		if len(current) > 0 && e.measureLine(joinWords(candidate), size) > maxWidth {
			lines = append(lines, joinWords(current))
			current = []word{w}
			continue
		}
		current = candidate
	}
	if len(current) > 0 {
		lines = append(lines, joinWords(current))
	}
	return lines
}

// Lines returns the lines Draw would render for text under st.
func (e *Engine) Lines(text string, st Style) []Line {
	return e.wrap(text, st.MaxWidth, st.Size)
}

// BlockHeight is the distance between the first and last line anchors of n lines.
func BlockHeight(n int, st Style) float64 {
	if n <= 1 {
		return 0
	}
	return float64(n-1) * st.lineAdvance()
}

// DrawLine renders one line with its vertical middle at y and anchored at x
// according to align.
func (e *Engine) DrawLine(dst draw.Image, line string, x, y, size float64, col color.Color, align Align) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drawLine(dst, line, x, y, size, col, align)
}

func (e *Engine) drawLine(dst draw.Image, line string, x, y, size float64, col color.Color, align Align) {
	e.drawRuns(dst, ParseRuns(line), x, y, size, col, align)
}

func (e *Engine) drawRuns(dst draw.Image, runs []Run, x, y, size float64, col color.Color, align Align) {
	if len(runs) == 0 {
		return
	}

	switch align {
	case AlignCenter:
		x -= e.measureLine(runs, size) / 2
	case AlignRight:
		x -= e.measureLine(runs, size)
	}

	src := image.NewUniform(col)
	for _, r := range runs {
		face := e.face(r.Bold, size)
		m := face.Metrics()
		baseline := y + toFloat(m.Ascent-m.Descent)/2
		d := &font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot:  fixed.Point26_6{X: fix(x), Y: fix(baseline)},
		}
		d.DrawString(r.Text)
		x += toFloat(d.Dot.X - fix(x))
	}
}

func fix(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// Draw renders text starting at (x, y), wrapping when st.MaxWidth is set,
// and returns the number of lines drawn.
func (e *Engine) Draw(dst draw.Image, text string, x, y float64, st Style) int {
	lines := e.Lines(text, st)
	col := st.Color
	if col == nil {
		col = color.Black
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, line := range lines {
		e.drawRuns(dst, line, x, y+float64(i)*st.lineAdvance(), st.Size, col, st.Align)
	}
	return len(lines)
}
