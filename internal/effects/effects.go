package effects

import (
	"image"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"hotghost/internal/workers"
)

// Apply runs the enabled effects of s on img in place. rng supplies the noise
// draws; a nil rng is seeded from the clock. Settings with Enabled false
// leave img untouched.
func Apply(img *image.NRGBA, s Settings, rng *rand.Rand) {
	if img == nil || !s.Enabled {
		return
	}
	if s.Blur > 0 {
		blur(img, float64(s.Blur))
	}
	if s.Brightness != 0 || s.Contrast != 0 {
		adjust(img, s.Brightness, s.Contrast)
	}
	if s.Noise > 0 {
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		addNoise(img, s.Noise, rng)
	}
}

func blur(img *image.NRGBA, radius float64) {
	blurred := imaging.Blur(img, radius)
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		dst := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		src := blurred.Pix[y*blurred.Stride : y*blurred.Stride+b.Dx()*4]
		// alpha stays as it was
		for i := 0; i < len(dst); i += 4 {
			dst[i] = src[i]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+2]
		}
	}
}

// AdjustTable returns the 256-entry lookup table for a brightness/contrast pair.
// Contrast and brightness are combined first and clamped once, so a value
// pushed past 255 by contrast can be pulled back into range by a negative
// brightness.
func AdjustTable(brightness, contrast int) [256]uint8 {
	var lut [256]uint8
	factor := float64(contrast+100) / 100
	shift := float64(brightness) / 100 * 255
	for v := 0; v < 256; v++ {
		lut[v] = clamp((float64(v)-128)*factor + 128 + shift)
	}
	return lut
}

func adjust(img *image.NRGBA, brightness, contrast int) {
	lut := AdjustTable(brightness, contrast)
	b := img.Bounds()
	width := b.Dx()

	var wg sync.WaitGroup
	for _, band := range workers.Bands(b.Dy(), workers.ForCPU(0)) {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				row := img.Pix[y*img.Stride : y*img.Stride+width*4]
				for i := 0; i < len(row); i += 4 {
					row[i] = lut[row[i]]
					row[i+1] = lut[row[i+1]]
					row[i+2] = lut[row[i+2]]
				}
			}
		}(band[0], band[1])
	}
	wg.Wait()
}

// Noise runs on one goroutine so a seeded rng yields the same image every time.
func addNoise(img *image.NRGBA, noise int, rng *rand.Rand) {
	intensity := float64(noise) * 2.55
	b := img.Bounds()
	width := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			n := (rng.Float64() - 0.5) * intensity
			row[i] = clamp(float64(row[i]) + n)
			row[i+1] = clamp(float64(row[i+1]) + n)
			row[i+2] = clamp(float64(row[i+2]) + n)
		}
	}
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
