package assets

import (
	"image/color"
	"testing"

	"bananalab/internal/logging"
)

// govips cannot restart after vips.Shutdown, so nothing here shuts it down.

func TestInitVipsIdempotency(t *testing.T) {
	if err := InitVips(); err != nil {
		t.Skipf("libvips not available in test environment: %v", err)
	}
	if err := InitVips(); err != nil {
		t.Errorf("second InitVips() call failed: %v", err)
	}
	if !IsVipsAvailable() {
		t.Error("IsVipsAvailable() = false after successful InitVips")
	}
}

func TestShrinkWithVipsIfAvailable(t *testing.T) {
	if !IsVipsAvailable() {
		if err := InitVips(); err != nil {
			t.Skip("libvips not available in test environment")
		}
	}

	data := encodePNG(t, 400, 200, color.NRGBA{R: 200, A: 255})
	img, err := shrinkWithVips(data, 100, 50)
	if err != nil {
		t.Fatalf("shrinkWithVips: %v", err)
	}
	if got := img.Bounds().Size(); got.X > 100 || got.Y > 50 {
		t.Errorf("size = %v, want within 100x50", got)
	}

	viaDecode, err := Decode(data, 100, MaxImagePixels, true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := viaDecode.Bounds().Size(); got.X > 100 {
		t.Errorf("Decode with vips size = %v", got)
	}
}

func TestVipsLoggingThresholds(t *testing.T) {
	tests := []struct {
		level logging.LogLevel
		name  string
	}{
		{logging.LevelDebug, "debug"},
		{logging.LevelInfo, "info"},
		{logging.LevelWarn, "warn"},
		{logging.LevelError, "error"},
	}
	prev := 0
	for i, tt := range tests {
		threshold, handler := vipsLogging(tt.level)
		if handler == nil {
			t.Fatalf("%s: nil handler", tt.name)
		}
		// stricter application levels lower the libvips threshold
		if i > 0 && int(threshold) > prev {
			t.Errorf("%s: threshold %d above previous %d", tt.name, threshold, prev)
		}
		prev = int(threshold)
	}
}
