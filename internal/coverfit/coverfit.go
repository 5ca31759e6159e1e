package coverfit

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Crop is a source sub-rectangle in floating point source pixels.
type Crop struct {
	SX, SY, SW, SH float64
}

// ResolveCrop returns the centered crop of a sw x sh source whose aspect
// ratio matches dw x dh. Degenerate sizes return the full source.
func ResolveCrop(sw, sh, dw, dh float64) Crop {
	full := Crop{SW: sw, SH: sh}
	if !(sw > 0 && sh > 0 && dw > 0 && dh > 0) || math.IsInf(sw+sh+dw+dh, 0) {
		return full
	}

	srcAspect := sw / sh
	dstAspect := dw / dh
	if srcAspect > dstAspect {
		w := sh * dstAspect
		return Crop{SX: (sw - w) / 2, SY: 0, SW: w, SH: sh}
	}
	h := sw / dstAspect
	return Crop{SX: 0, SY: (sh - h) / 2, SW: sw, SH: h}
}

// Rect rounds the crop to whole pixels inside bounds. The result is never
// empty when bounds is not.
func (c Crop) Rect(bounds image.Rectangle) image.Rectangle {
	x0 := bounds.Min.X + int(math.Round(c.SX))
	y0 := bounds.Min.Y + int(math.Round(c.SY))
	x1 := x0 + max(1, int(math.Round(c.SW)))
	y1 := y0 + max(1, int(math.Round(c.SH)))
	return image.Rect(x0, y0, x1, y1).Intersect(bounds)
}

// Window narrows a crop resolved for the destination full to the part of
// the source that lands inside window, a sub-rectangle of full.
func (c Crop) Window(full, window image.Rectangle) Crop {
	window = window.Intersect(full)
	if full.Empty() || window.Empty() {
		return c
	}
	fx := c.SW / float64(full.Dx())
	fy := c.SH / float64(full.Dy())
	return Crop{
		SX: c.SX + float64(window.Min.X-full.Min.X)*fx,
		SY: c.SY + float64(window.Min.Y-full.Min.Y)*fy,
		SW: float64(window.Dx()) * fx,
		SH: float64(window.Dy()) * fy,
	}
}

// Extract returns the part of src covered by c. The result is not resized.
func Extract(src image.Image, c Crop) image.Image {
	b := src.Bounds()
	r := c.Rect(b)
	if r == b || r.Empty() {
		return src
	}
	return imaging.Crop(src, r)
}

// Apply crops src for a dw x dh destination. The result is not resized.
func Apply(src image.Image, dw, dh int) image.Image {
	b := src.Bounds()
	return Extract(src, ResolveCrop(float64(b.Dx()), float64(b.Dy()), float64(dw), float64(dh)))
}
