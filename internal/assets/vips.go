package assets

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"bananalab/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsLogging maps the application level to the libvips threshold and
// forwards libvips messages through the application logger.
func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	threshold := map[logging.LogLevel]vips.LogLevel{
		logging.LevelDebug: vips.LogLevelInfo,
		logging.LevelInfo:  vips.LogLevelWarning,
		logging.LevelWarn:  vips.LogLevelCritical,
		logging.LevelError: vips.LogLevelError,
	}[level]
	if threshold == 0 {
		threshold = vips.LogLevelWarning
	}

	return threshold, func(domain string, l vips.LogLevel, msg string) {
		switch {
		case l <= vips.LogLevelCritical:
			logging.Error("[vips:%s] %s", domain, msg)
		case l == vips.LogLevelWarning && threshold >= vips.LogLevelWarning:
			logging.Warn("[vips:%s] %s", domain, msg)
		case threshold >= vips.LogLevelInfo:
			logging.Debug("[vips:%s] %s", domain, msg)
		}
	}
}

// InitVips starts libvips. It is safe to call more than once.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	level, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	// one operation at a time keeps decode memory predictable
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips. govips cannot restart after shutdown.
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

// IsVipsAvailable reports whether libvips is running.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// shrinkWithVips decodes data with decode-time shrinking to fit w x h.
// Images with alpha round-trip through PNG so transparency survives.
func shrinkWithVips(data []byte, w, h int) (image.Image, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}
	if err := ref.Thumbnail(w, h, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	var out []byte
	if ref.HasAlpha() {
		out, _, err = ref.ExportPng(vips.NewPngExportParams())
	} else {
		out, _, err = ref.ExportJpeg(&vips.JpegExportParams{Quality: 95, OptimizeCoding: true})
	}
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
