package filters

import (
	"image"
	"math"

	"github.com/disintegration/gift"
)

// Ranges gift accepts for its percentage based filters.
const (
	giftMaxSaturation = 6.0 // +500%
)

// fastSupports reports whether p can be expressed as a gift filter chain.
func fastSupports(p Params) bool {
	return p.Saturation <= giftMaxSaturation
}

// buildChain composes the color adjustments into one gift filter list, the
// equivalent of a chained CSS filter string. Brightness, contrast, tint and
// opacity use ColorFunc: gift's brightness is additive and its sepia does
// not blend toward the tinted color the way applyPixels does.
func buildChain(p Params) []gift.Filter {
	var chain []gift.Filter
	if p.Blur > epsilon {
		chain = append(chain, gift.GaussianBlur(float32(p.Blur)))
	}
	if !near(p.Brightness, 1) || !near(p.Contrast, 1) {
		br, ct := float32(p.Brightness), float32(p.Contrast)
		chain = append(chain, gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
			return contrast01(clamp01(r0*br), ct), contrast01(clamp01(g0*br), ct), contrast01(clamp01(b0*br), ct), a0
		}))
	}
	if !near(p.Saturation, 1) {
		chain = append(chain, gift.Saturation(float32((p.Saturation-1)*100)))
	}
	if h := wrapHue(p.Hue); !near(h, 0) {
		chain = append(chain, gift.Hue(float32(h)))
	}
	if p.Tint > epsilon {
		chain = append(chain, gift.ColorFunc(sepiaFunc(float32(p.Tint))))
	}
	if !near(p.Opacity, 1) {
		op := float32(p.Opacity)
		chain = append(chain, gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
			return r0, g0, b0, a0 * op
		}))
	}
	return chain
}

// sepiaFunc blends each pixel toward its sepia tone by amount, the same
// matrix and blend as the pixel strategy.
func sepiaFunc(amount float32) func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
	return func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
		sr := clamp01(0.393*r0 + 0.769*g0 + 0.189*b0)
		sg := clamp01(0.349*r0 + 0.686*g0 + 0.168*b0)
		sb := clamp01(0.272*r0 + 0.534*g0 + 0.131*b0)
		return clamp01(r0 + (sr-r0)*amount), clamp01(g0 + (sg-g0)*amount), clamp01(b0 + (sb-b0)*amount), a0
	}
}

func applyFast(src image.Image, p Params, parallel bool) *image.NRGBA {
	g := gift.New(buildChain(p)...)
	g.SetParallelization(parallel)
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contrast01(v, c float32) float32 {
	if c == 1 {
		return v
	}
	return clamp01((v-0.5)*c + 0.5)
}

// wrapHue maps degrees into [-180, 180].
func wrapHue(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h > 180 {
		h -= 360
	} else if h < -180 {
		h += 360
	}
	return h
}
