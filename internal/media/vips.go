package media

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"hotghost/internal/logging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogSettings maps the application log level onto libvips' own level and
// a handler forwarding its messages to our logger.
func vipsLogSettings(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	log := logging.With("vips")
	forward := func(min vips.LogLevel) func(string, vips.LogLevel, string) {
		return func(domain string, level vips.LogLevel, msg string) {
			if level > min {
				return
			}
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				log.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				log.Warn("[%s] %s", domain, msg)
			default:
				log.Debug("[%s] %s", domain, msg)
			}
		}
	}

	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, forward(vips.LogLevelDebug)
	case logging.LevelWarn:
		return vips.LogLevelError, forward(vips.LogLevelError)
	case logging.LevelError:
		return vips.LogLevelCritical, forward(vips.LogLevelCritical)
	default:
		return vips.LogLevelWarning, forward(vips.LogLevelWarning)
	}
}

// InitVips initializes the libvips library.
// This should be called once at startup; decoding works without it for the
// formats Go can read natively.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	level, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// One generation runs at a time, so a single worker and a small cache suffice.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// decodeWithVips loads data with libvips, shrinking it to the size limits at
// decode time, and re-imports it as PNG so alpha survives.
func decodeWithVips(data []byte) (image.Image, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips autorotate failed: %w", err)
	}

	if ref.Width() > MaxImageDimension || ref.Height() > MaxImageDimension {
		logging.Debug("Vips shrinking %dx%d to fit %d", ref.Width(), ref.Height(), MaxImageDimension)
		if err := ref.Thumbnail(MaxImageDimension, MaxImageDimension, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	pngBytes, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
