package textlayout

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRuns(t *testing.T) {
	tests := []struct {
		in   string
		want []Run
	}{
		{"", nil},
		{"plain", []Run{{Text: "plain"}}},
		{"a *b* c", []Run{{Text: "a "}, {Text: "b", Bold: true}, {Text: " c"}}},
		{"a * b", []Run{{Text: "a * b"}}},
		{"*all bold*", []Run{{Text: "all bold", Bold: true}}},
		{"*one* and *two*", []Run{{Text: "one", Bold: true}, {Text: " and "}, {Text: "two", Bold: true}}},
		{"***", []Run{{Text: "***"}}},
		{"**", []Run{{Text: "**"}}},
		{"**b**", []Run{{Text: "*"}, {Text: "b", Bold: true}, {Text: "*"}}},
		{"*a*b*", []Run{{Text: "a", Bold: true}, {Text: "b*"}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseRuns(tt.in)); diff != "" {
				t.Errorf("ParseRuns(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestWrapLongWordStaysOnOneLine(t *testing.T) {
	e := NewDefault()
	word := strings.Repeat("x", 80)
	for _, maxWidth := range []float64{1, 10, 50, 200} {
		lines := e.Wrap(word, maxWidth, 32)
		if diff := cmp.Diff([]string{word}, lines); diff != "" {
			t.Errorf("maxWidth=%v (-want +got):\n%s", maxWidth, diff)
		}
	}
}

func TestWrapRespectsWidth(t *testing.T) {
	e := NewDefault()
	text := "the quick brown fox jumps over the *lazy* dog again and again"
	const size, maxWidth = 32.0, 300.0

	lines := e.Wrap(text, maxWidth, size)
	if len(lines) < 2 {
		t.Fatalf("expected several lines, got %q", lines)
	}
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("joined lines = %q, want %q", got, text)
	}
	for _, l := range lines {
		if strings.Contains(l, " ") && e.Measure(l, size) > maxWidth {
			t.Errorf("line %q exceeds %v", l, maxWidth)
		}
	}
}

func TestWrapWithoutMaxWidth(t *testing.T) {
	e := NewDefault()
	if diff := cmp.Diff([]string{"one two three"}, e.Wrap("one two three", 0, 20)); diff != "" {
		t.Error(diff)
	}
	if lines := e.Wrap("", 100, 20); len(lines) != 0 {
		t.Errorf("empty text gave %q", lines)
	}
}

func TestWrapKeepsBoldAcrossLines(t *testing.T) {
	e := NewDefault()
	lines := e.wrap("breaking *news from the capital city today*", 400, 42)
	if len(lines) < 2 {
		t.Fatalf("expected the bold run to wrap, got %v", lines)
	}

	var words []string
	for i, l := range lines {
		for _, r := range l {
			if strings.Contains(r.Text, "*") {
				t.Errorf("line %d run %q kept a marker", i, r.Text)
			}
			for _, w := range strings.Fields(r.Text) {
				if w != "breaking" && !r.Bold {
					t.Errorf("line %d: %q drawn in the regular weight", i, w)
				}
				words = append(words, w)
			}
		}
		if i > 0 && (len(l) != 1 || !l[0].Bold) {
			t.Errorf("line %d = %+v, want a single bold run", i, l)
		}
	}
	if got := strings.Join(words, " "); got != "breaking news from the capital city today" {
		t.Errorf("words = %q", got)
	}

	// The markup form parses back to the same runs.
	for i, s := range e.Wrap("breaking *news from the capital city today*", 400, 42) {
		if diff := cmp.Diff(lines[i], Line(ParseRuns(s))); diff != "" {
			t.Errorf("line %d %q round trip (-want +got):\n%s", i, s, diff)
		}
	}
}

func TestWrapMeasuresBoldWidth(t *testing.T) {
	e := NewDefault()
	const size, maxWidth = 65.0, 796.0
	text := strings.TrimSpace(strings.Repeat("*manifestação* ", 6))

	lines := e.Wrap(text, maxWidth, size)
	if len(lines) != 6 {
		t.Errorf("got %d lines %q, want one bold word per line", len(lines), lines)
	}
	for _, l := range lines {
		if w := e.Measure(l, size); w > maxWidth {
			t.Errorf("line %q is %.1fpx wide, limit %v", l, w, maxWidth)
		}
	}
}

func TestWrapSplitsOnAnyWhitespace(t *testing.T) {
	e := NewDefault()
	if diff := cmp.Diff([]string{"one two three four"}, e.Wrap("one\ttwo\nthree  four ", 10000, 20)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"one", "two"}, e.Wrap("one\n\ntwo", 1, 20)); diff != "" {
		t.Errorf("narrow (-want +got):\n%s", diff)
	}
	if lines := e.Wrap(" \t ", 100, 20); lines != nil {
		t.Errorf("blank text gave %q", lines)
	}
}

func TestLineString(t *testing.T) {
	l := Line{{Text: "a "}, {Text: "b c", Bold: true}}
	if got := l.String(); got != "a *b c*" {
		t.Errorf("String() = %q", got)
	}
}

func TestBoldIsWider(t *testing.T) {
	e := NewDefault()
	normal := e.Measure("Headline", 40)
	bold := e.Measure("*Headline*", 40)
	if bold <= normal {
		t.Errorf("bold width %v should exceed normal %v", bold, normal)
	}
}

func TestDrawLineAlignment(t *testing.T) {
	e := NewDefault()
	tests := []struct {
		align      Align
		x          float64
		wantLeftOf bool // ink must stay left of x
	}{
		{AlignRight, 300, true},
		{AlignLeft, 100, false},
	}
	for _, tt := range tests {
		img := image.NewRGBA(image.Rect(0, 0, 400, 100))
		e.DrawLine(img, "Hello *World*", tt.x, 50, 24, color.Black, tt.align)
		minX, maxX := inkExtent(img)
		if minX < 0 {
			t.Fatalf("align %v drew nothing", tt.align)
		}
		if tt.wantLeftOf && maxX > int(tt.x)+1 {
			t.Errorf("right-aligned ink reaches %d, past %v", maxX, tt.x)
		}
		if !tt.wantLeftOf && minX < int(tt.x)-1 {
			t.Errorf("left-aligned ink starts at %d, before %v", minX, tt.x)
		}
	}
}

func TestDrawCenteredIsBalanced(t *testing.T) {
	e := NewDefault()
	img := image.NewRGBA(image.Rect(0, 0, 600, 100))
	e.DrawLine(img, "centered text", 300, 50, 30, color.Black, AlignCenter)
	minX, maxX := inkExtent(img)
	left, right := 300-minX, maxX-300
	if d := left - right; d < -6 || d > 6 {
		t.Errorf("centered ink unbalanced: left %d right %d", left, right)
	}
}

func TestDrawReturnsLineCount(t *testing.T) {
	e := NewDefault()
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	st := Style{Size: 24, Color: color.White, Align: AlignLeft, MaxWidth: 120}
	n := e.Draw(img, "several short words that will need wrapping", 10, 20, st)
	if n != len(e.Lines("several short words that will need wrapping", st)) || n < 2 {
		t.Errorf("Draw returned %d lines", n)
	}
	if e.Draw(img, "", 10, 20, st) != 0 {
		t.Error("empty text should draw no lines")
	}
}

func TestBlockHeight(t *testing.T) {
	st := Style{Size: 10}
	if got := BlockHeight(3, st); got != 26 {
		t.Errorf("BlockHeight(3) = %v, want 26", got)
	}
	if got := BlockHeight(1, st); got != 0 {
		t.Errorf("BlockHeight(1) = %v, want 0", got)
	}
}

func inkExtent(img *image.RGBA) (minX, maxX int) {
	minX, maxX = -1, -1
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if img.RGBAAt(x, y).A != 0 {
				if minX < 0 {
					minX = x
				}
				maxX = x
				break
			}
		}
	}
	return minX, maxX
}
