package filtergraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"hotghost/internal/effects"
)

// Canvas and timing shared by the video templates.
const (
	Width     = 1080
	Height    = 1920
	FrameRate = 30

	// TextureOpacity is the alpha of the looping texture layer.
	TextureOpacity = 0.06
	// MaxOffset is the vertical crop offset at positionY = ±50.
	MaxOffset = 200

	IntroDuration   = "0.1"
	TrailerDuration = "90"
	AudioBitrate    = "192k"

	FinalLabel = "[final]"
)

// Choquei media band geometry.
const (
	ChoqueiGap         = 15
	ChoqueiHeader      = 330
	ChoqueiFooter      = 330
	ChoqueiMediaWidth  = (Width - ChoqueiGap) / 2
	ChoqueiMediaHeight = Height - ChoqueiHeader - ChoqueiFooter
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EffectChain translates effect settings into a comma-separated filter
// chain: boxblur, eq brightness, eq contrast, noise, each only when its
// parameter is non-neutral. It returns "" when nothing applies.
func EffectChain(fx effects.Settings) string {
	if !fx.Enabled {
		return ""
	}
	var filters []string
	if fx.Blur > 0 {
		filters = append(filters, fmt.Sprintf("boxblur=%d:%d", fx.Blur, fx.Blur))
	}
	if fx.Brightness != 0 {
		filters = append(filters, "eq=brightness="+num(float64(fx.Brightness)/50))
	}
	if fx.Contrast != 0 {
		filters = append(filters, "eq=contrast="+num(1+float64(fx.Contrast)/50))
	}
	if fx.Noise > 0 {
		filters = append(filters, fmt.Sprintf("noise=alls=%d:allf=t", fx.Noise))
	}
	return strings.Join(filters, ",")
}

// Offset maps positionY in [-50,50] to a crop offset in pixels.
func Offset(positionY int) int {
	return int(math.Round(float64(positionY) / 50 * MaxOffset))
}

// coverCrop scales to cover w x h and crops the centered excess, shifted
// down by offsetY.
func coverCrop(w, h, offsetY int) string {
	crop := fmt.Sprintf("crop=%d:%d", w, h)
	if offsetY != 0 {
		crop = fmt.Sprintf("crop=%d:%d:(iw-%d)/2:(ih-%d)/2%+d", w, h, w, h, offsetY)
	}
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,%s", w, h, crop)
}

func texture(input, w, h int) string {
	return fmt.Sprintf("[%d:v]scale=%d:%d,loop=-1:size=32767,format=rgba,colorchannelmixer=aa=%s[texture]",
		input, w, h, num(TextureOpacity))
}

// Graph is a filter_complex graph and the label of its video output.
type Graph struct {
	Filter string
	Map    string
}

// MetropolesGraph expects inputs 0 = video, 1 = overlay raster, 2 = texture.
func MetropolesGraph(positionY int, fx effects.Settings) Graph {
	chains := []string{
		fmt.Sprintf("[0:v]%s,setsar=1[scaled]", coverCrop(Width, Height, Offset(positionY))),
	}
	label := "scaled"
	if fc := EffectChain(fx); fc != "" {
		chains = append(chains, "[scaled]"+fc+"[effected]")
		label = "effected"
	}
	chains = append(chains,
		texture(2, Width, Height),
		fmt.Sprintf("[%s][texture]overlay=0:0:shortest=1[textured]", label),
		"[textured][1:v]overlay=0:0"+FinalLabel,
	)
	return Graph{Filter: strings.Join(chains, ";"), Map: FinalLabel}
}

// ChoqueiGraph expects inputs 0 = left video, 1 = right video,
// 2 = overlay raster, 3 = texture.
func ChoqueiGraph(fxLeft, fxRight effects.Settings) Graph {
	chains := []string{fmt.Sprintf("color=white:%dx%d[bg]", Width, Height)}

	slot := func(input int, name string, fx effects.Settings) string {
		label := name + "_scaled"
		chains = append(chains, fmt.Sprintf("[%d:v]%s,setsar=1[%s]", input, coverCrop(ChoqueiMediaWidth, ChoqueiMediaHeight, 0), label))
		if fc := EffectChain(fx); fc != "" {
			chains = append(chains, fmt.Sprintf("[%s]%s[%s_eff]", label, fc, name))
			label = name + "_eff"
		}
		return label
	}
	left := slot(0, "left", fxLeft)
	right := slot(1, "right", fxRight)

	// shortest=1 ends the infinite white source with the media
	chains = append(chains,
		fmt.Sprintf("[bg][%s]overlay=0:%d:shortest=1[with_left]", left, ChoqueiHeader),
		fmt.Sprintf("[with_left][%s]overlay=%d:%d:shortest=1[with_videos]", right, ChoqueiMediaWidth+ChoqueiGap, ChoqueiHeader),
		texture(3, Width, ChoqueiMediaHeight),
		fmt.Sprintf("[with_videos][texture]overlay=0:%d:shortest=1[textured]", ChoqueiHeader),
		"[textured][2:v]overlay=0:0"+FinalLabel,
	)
	return Graph{Filter: strings.Join(chains, ";"), Map: FinalLabel}
}

// SinglePassArgs completes a single-invocation template: inputs in order,
// the graph, audio from the first input when present, H.264 at CRF 23.
func SinglePassArgs(inputs []string, g Graph, output string) []string {
	args := make([]string, 0, len(inputs)*2+20)
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	return append(args,
		"-filter_complex", g.Filter,
		"-map", g.Map,
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		output,
	)
}
