package assets

import (
	"bytes"
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
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest width or height kept after decode.
	// Larger assets are downscaled, since thumbnails never need more.
	MaxImageDimension = 4096

	// MaxImagePixels caps total pixels (~80MB as RGBA).
	MaxImagePixels = 20_000_000
)

// Dimensions holds image width and height.
type Dimensions struct {
	Width  int
	Height int
}

// GetDimensions reads the image header without decoding pixels.
func GetDimensions(data []byte) (Dimensions, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, "", err
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, format, nil
}

// constrain returns the size an image must be reduced to, or ok=false
// when it is already within limits.
func constrain(d Dimensions, maxDimension, maxPixels int) (w, h int, ok bool) {
	w, h = d.Width, d.Height
	if w <= 0 || h <= 0 {
		return w, h, false
	}
	if w <= maxDimension && h <= maxDimension && w*h <= maxPixels {
		return w, h, false
	}

	if w > maxDimension || h > maxDimension {
		if w > h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}
	if w*h > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(w*h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	return max(w, 1), max(h, 1), true
}

// Decode decodes an encoded image with EXIF auto-orientation, downscaling
// it when it exceeds the limits. Oversized images go through libvips when
// useVips is set and libvips is running.
func Decode(data []byte, maxDimension, maxPixels int, useVips bool) (image.Image, error) {
	dims, format, err := GetDimensions(data)
	if err != nil {
		log.Debug("could not read image header: %v, decoding anyway", err)
		img, derr := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if derr != nil {
			return nil, fmt.Errorf("decode image: %w", derr)
		}
		return img, nil
	}

	w, h, needsConstraint := constrain(dims, maxDimension, maxPixels)
	if !needsConstraint {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", format, err)
		}
		return img, nil
	}

	log.Info("constraining large %s image from %dx%d to %dx%d", format, dims.Width, dims.Height, w, h)
	if useVips && IsVipsAvailable() {
		img, err := shrinkWithVips(data, w, h)
		if err == nil {
			return img, nil
		}
		log.Warn("vips shrink failed, falling back: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}
