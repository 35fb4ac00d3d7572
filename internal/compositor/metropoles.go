package compositor

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"hotghost/internal/assets"
	"hotghost/internal/effects"
	"hotghost/internal/textlayout"
)

// Metropoles layout.
const (
	MetropolesFooterHeight = 420
	MetropolesGradientTop  = 450
	MetropolesLogoWidth    = 800
	MetropolesLogoHeight   = 160
	MetropolesPadding      = 50
	MetropolesSubtitleSize = 42

	// overscan leaves room to slide the media vertically.
	overscan = 1.2
)

// Placement is where the media slot lands on the canvas, in canvas pixels.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// MetropolesPlacement computes the overscanned cover-fit of a w x h source
// shifted by positionY in [-50,50]. Negative values move the visible window up.
func MetropolesPlacement(w, h, positionY int) Placement {
	imgAspect := float64(w) / float64(h)
	canvasAspect := float64(Width) / float64(Height)

	var p Placement
	if imgAspect > canvasAspect {
		p.Height = Height * overscan
		p.Width = p.Height * imgAspect
	} else {
		p.Width = Width * overscan
		p.Height = p.Width / imgAspect
	}
	p.X = (Width - p.Width) / 2

	extraHeight := p.Height - Height
	offsetY := float64(positionY) / 50 * (extraHeight / 2)
	p.Y = (Height-p.Height)/2 + offsetY
	return p
}

// Metropoles renders the single-slot gradient-footer template.
func (c *Compositor) Metropoles(ctx context.Context, src image.Image, texts TextSet, fx effects.Settings) (*image.RGBA, error) {
	b := src.Bounds()
	p := MetropolesPlacement(b.Dx(), b.Dy(), fx.PositionY)

	scaled := imaging.Resize(src, int(math.Round(p.Width)), int(math.Round(p.Height)), imaging.Lanczos)
	layer := image.NewNRGBA(image.Rect(0, 0, Width, Height))
	sx := clampInt(-int(math.Round(p.X)), 0, scaled.Bounds().Dx()-Width)
	sy := clampInt(-int(math.Round(p.Y)), 0, scaled.Bounds().Dy()-Height)
	draw.Draw(layer, layer.Bounds(), scaled, image.Pt(sx, sy), draw.Src)
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	c.applyEffects(layer, fx)
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), layer, image.Point{}, draw.Src)

	if err := c.metropolesChrome(canvas, texts, fx.Gradient, false); err != nil {
		return nil, err
	}
	return canvas, nil
}

// MetropolesOverlay renders gradient, logo and subtitle on a transparent
// canvas for compositing over video frames.
func (c *Compositor) MetropolesOverlay(texts TextSet, gradient int) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	if err := c.metropolesChrome(canvas, texts, gradient, true); err != nil {
		return nil, err
	}
	return canvas, nil
}

// metropolesChrome draws everything but the media. The video overlay sets
// the subtitle lower and centers the block on its anchor.
func (c *Compositor) metropolesChrome(canvas *image.RGBA, texts TextSet, gradient int, video bool) error {
	drawGradient(canvas, MetropolesGradientTop, gradient)

	logo, err := c.logo(assets.LogoMetropoles, MetropolesLogoWidth, MetropolesLogoHeight)
	if err != nil {
		return err
	}
	logoY := Height - MetropolesFooterHeight
	drawOver(canvas, logo, (Width-MetropolesLogoWidth)/2, logoY)

	if texts.Subtitle == "" {
		return nil
	}
	st := textlayout.Style{
		Size:     MetropolesSubtitleSize,
		Color:    color.White,
		Align:    textlayout.AlignCenter,
		MaxWidth: Width - MetropolesPadding*2,
	}
	y := float64(logoY + MetropolesLogoHeight + 50)
	if video {
		st.LineHeight = 52.0 / MetropolesSubtitleSize
		y = float64(logoY+MetropolesLogoHeight+70) - c.blockHeight(texts.Subtitle, st)/2
	}
	c.Text.Draw(canvas, texts.Subtitle, Width/2, y, st)
	return nil
}

func (c *Compositor) blockHeight(text string, st textlayout.Style) float64 {
	return textlayout.BlockHeight(len(c.Text.Lines(text, st)), st)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
