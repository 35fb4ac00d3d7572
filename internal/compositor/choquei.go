package compositor

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"hotghost/internal/assets"
	"hotghost/internal/effects"
	"hotghost/internal/textlayout"
)

// Choquei layout.
const (
	ChoqueiGap            = 15
	ChoqueiHeaderHeight   = 330
	ChoqueiFooterHeight   = 330
	ChoqueiHeaderPadding  = 80
	ChoqueiHeaderLogoSize = 200
	ChoqueiCenterLogoSize = 190
	ChoqueiTitleSize      = 65
	ChoqueiSubtitleSize   = 32
	ChoqueiFooterSize     = 32

	ChoqueiMediaTop    = ChoqueiHeaderHeight
	ChoqueiMediaHeight = Height - ChoqueiHeaderHeight - ChoqueiFooterHeight
	// ChoqueiMediaWidth is the width of the left slot; the right slot takes
	// the remaining pixel.
	ChoqueiMediaWidth  = (Width - ChoqueiGap) / 2
	ChoqueiRightX      = ChoqueiMediaWidth + ChoqueiGap
	choqueiTextX       = ChoqueiHeaderPadding + ChoqueiHeaderLogoSize + 40
	choqueiTextMaxW    = Width - ChoqueiHeaderPadding - ChoqueiHeaderLogoSize - 80
	choqueiHeaderMid   = ChoqueiHeaderHeight / 2
	choqueiFooterMid   = Height - ChoqueiFooterHeight + ChoqueiFooterHeight/2
	choqueiFooterMaxW  = Width - 100
	choqueiTitleShift  = 35
	choqueiSubtitleGap = 50
)

var white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

// Choquei renders the two-slot header/footer template on a white background.
func (c *Compositor) Choquei(ctx context.Context, left, right image.Image, texts TextSet, fxLeft, fxRight effects.Settings) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	slots := []struct {
		img image.Image
		fx  effects.Settings
		x   int
		w   int
	}{
		{left, fxLeft, 0, ChoqueiMediaWidth},
		{right, fxRight, ChoqueiRightX, Width - ChoqueiRightX},
	}
	for _, s := range slots {
		layer := coverFit(s.img, s.w, ChoqueiMediaHeight)
		c.applyEffects(layer, s.fx)
		draw.Draw(canvas, image.Rect(s.x, ChoqueiMediaTop, s.x+s.w, ChoqueiMediaTop+ChoqueiMediaHeight), layer, image.Point{}, draw.Src)
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
	}

	if err := c.choqueiChrome(canvas, texts, false); err != nil {
		return nil, err
	}
	return canvas, nil
}

// ChoqueiOverlay renders the header and footer bands, both logos and the
// text on a canvas whose media band stays transparent.
func (c *Compositor) ChoqueiOverlay(texts TextSet) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill := image.NewUniform(white)
	draw.Draw(canvas, image.Rect(0, 0, Width, ChoqueiHeaderHeight), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, Height-ChoqueiFooterHeight, Width, Height), fill, image.Point{}, draw.Src)

	if err := c.choqueiChrome(canvas, texts, true); err != nil {
		return nil, err
	}
	return canvas, nil
}

func (c *Compositor) choqueiChrome(canvas *image.RGBA, texts TextSet, video bool) error {
	header, err := c.logo(assets.LogoChoquei, ChoqueiHeaderLogoSize, ChoqueiHeaderLogoSize)
	if err != nil {
		return err
	}
	drawOver(canvas, header, ChoqueiHeaderPadding, (ChoqueiHeaderHeight-ChoqueiHeaderLogoSize)/2)

	center, err := c.logo(assets.LogoChoquei, ChoqueiCenterLogoSize, ChoqueiCenterLogoSize)
	if err != nil {
		return err
	}
	drawOver(canvas, center,
		(Width-ChoqueiCenterLogoSize)/2,
		ChoqueiMediaTop+(ChoqueiMediaHeight-ChoqueiCenterLogoSize)/2)

	black := color.Black
	if texts.Title != "" {
		st := textlayout.Style{Size: ChoqueiTitleSize, Color: black, MaxWidth: choqueiTextMaxW}
		if video {
			st.LineHeight = 70.0 / ChoqueiTitleSize
		}
		y := choqueiHeaderMid
		if texts.Subtitle != "" {
			y -= choqueiTitleShift
		}
		c.Text.Draw(canvas, texts.Title, choqueiTextX, float64(y), st)
	}
	if texts.Subtitle != "" {
		st := textlayout.Style{Size: ChoqueiSubtitleSize, Color: black, MaxWidth: choqueiTextMaxW}
		if video {
			st.LineHeight = 40.0 / ChoqueiSubtitleSize
		}
		c.Text.Draw(canvas, texts.Subtitle, choqueiTextX, choqueiHeaderMid+choqueiSubtitleGap, st)
	}
	if texts.Footer != "" {
		st := textlayout.Style{
			Size:     ChoqueiFooterSize,
			Color:    black,
			Align:    textlayout.AlignCenter,
			MaxWidth: choqueiFooterMaxW,
		}
		if video {
			st.LineHeight = 42.0 / ChoqueiFooterSize
		}
		y := float64(choqueiFooterMid) - c.blockHeight(texts.Footer, st)/2
		c.Text.Draw(canvas, texts.Footer, Width/2, y, st)
	}
	return nil
}
