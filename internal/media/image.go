package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // WebP format support

	"hotghost/internal/logging"
)

const (
	// MaxImageDimension is the maximum width or height we'll process.
	// Larger images are downscaled right after decode; templates never
	// draw anything bigger than the 1080x1920 canvas times the overscan.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll process.
	MaxImagePixels = 20_000_000 // ~20MP, uses ~80MB in NRGBA

	// MaxDecodePixels is the largest header-declared size decoded at all.
	// Anything between MaxImagePixels and this is decoded and downscaled.
	MaxDecodePixels = 4 * MaxImagePixels
)

var (
	// ErrDecode wraps every failure to turn a payload into pixels.
	ErrDecode = errors.New("media decode failed")

	// ErrTooLarge is returned, wrapped in ErrDecode, for images whose header
	// declares more than MaxDecodePixels.
	ErrTooLarge = errors.New("image dimensions too large")
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(data []byte) (*ImageDimensions, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// Decode decodes a still image, applying EXIF orientation and the size
// constraints. The header is read first so oversized images are refused
// before any pixel buffer is allocated. Formats the Go decoders reject are retried with libvips when
// it is initialized.
func Decode(data []byte) (image.Image, error) {
	if dims, err := GetImageDimensions(data); err == nil {
		if px := int64(dims.Width) * int64(dims.Height); px > MaxDecodePixels {
			return nil, fmt.Errorf("%w: %w: %dx%d", ErrDecode, ErrTooLarge, dims.Width, dims.Height)
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if !IsVipsAvailable() {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		logging.Debug("Go decoders rejected payload (%v), retrying with vips", err)
		img, err = decodeWithVips(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}
	return Constrain(img, MaxImageDimension, MaxImagePixels), nil
}

// Constrain downscales img when it exceeds maxDimension on either side or
// maxPixels in total, keeping the aspect ratio.
func Constrain(img image.Image, maxDimension, maxPixels int) image.Image {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return img
	}

	targetWidth, targetHeight := width, height

	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if targetPixels := targetWidth * targetHeight; targetPixels > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetPixels))
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	logging.Info("Constraining large image from %dx%d to %dx%d", width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos)
}
