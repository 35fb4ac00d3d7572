package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"

	"hotghost/internal/assets"
	"hotghost/internal/effects"
	"hotghost/internal/textlayout"
)

// Canvas dimensions shared by every template.
const (
	Width  = 1080
	Height = 1920
)

// JPEGQuality is the encoder quality of lossy template output.
const JPEGQuality = 95

// TextSet carries the optional text fields of a template. Fields may use
// *bold* markup.
type TextSet struct {
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
	Footer   string `json:"footer" yaml:"footer"`
}

// Empty reports whether no field is set.
func (t TextSet) Empty() bool {
	return t.Title == "" && t.Subtitle == "" && t.Footer == ""
}

// LogoSource provides the logo rasters.
type LogoSource interface {
	Image(id assets.ID) (image.Image, error)
}

// Compositor renders templates. It holds no per-render state.
type Compositor struct {
	Logos LogoSource
	Text  *textlayout.Engine
	// NewRand returns the noise source for one render. When nil each render
	// is seeded from the clock.
	NewRand func() *rand.Rand
}

// New returns a Compositor with the given logo source and text engine.
func New(logos LogoSource, text *textlayout.Engine) *Compositor {
	return &Compositor{Logos: logos, Text: text}
}

func (c *Compositor) rng() *rand.Rand {
	if c.NewRand != nil {
		return c.NewRand()
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (c *Compositor) logo(id assets.ID, w, h int) (image.Image, error) {
	img, err := c.Logos.Image(id)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img, nil
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

func drawOver(dst draw.Image, src image.Image, x, y int) {
	b := src.Bounds()
	draw.Draw(dst, image.Rect(x, y, x+b.Dx(), y+b.Dy()), src, b.Min, draw.Over)
}

// coverFit scales img to fill w x h, cropping the centered excess.
func coverFit(img image.Image, w, h int) *image.NRGBA {
	return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
}

// gradientStops are the relative positions and alpha factors of the footer gradient.
var gradientStops = [...]struct{ pos, alpha float64 }{
	{0, 0},
	{0.3, 0.7},
	{0.6, 0.9},
	{1, 1},
}

// GradientAlpha returns the gradient opacity at relative position t in [0,1]
// for an intensity in [0,100].
func GradientAlpha(t float64, intensity int) float64 {
	scale := float64(intensity) / 100
	if t <= 0 {
		return 0
	}
	for i := 1; i < len(gradientStops); i++ {
		a, b := gradientStops[i-1], gradientStops[i]
		if t <= b.pos {
			f := (t - a.pos) / (b.pos - a.pos)
			return (a.alpha + (b.alpha-a.alpha)*f) * scale
		}
	}
	return scale
}

// drawGradient darkens dst from top to the bottom edge, one row at a time.
func drawGradient(dst draw.Image, top, intensity int) {
	if intensity <= 0 {
		return
	}
	b := dst.Bounds()
	span := float64(b.Max.Y - top)
	black := image.NewUniform(color.Black)
	for y := top; y < b.Max.Y; y++ {
		a := GradientAlpha((float64(y-top)+0.5)/span, intensity)
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(a * 255))})
		row := image.Rect(b.Min.X, y, b.Max.X, y+1)
		draw.DrawMask(dst, row, black, image.Point{}, mask, image.Point{}, draw.Over)
	}
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render aborted: %w", err)
	}
	return nil
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// applyEffects runs fx on layer when enabled.
func (c *Compositor) applyEffects(layer *image.NRGBA, fx effects.Settings) {
	if fx.Active() {
		effects.Apply(layer, fx, c.rng())
	}
}
