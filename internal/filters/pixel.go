package filters

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// applyPixels is the reference strategy. Blur happens on the draw, then
// every pixel goes through brightness, contrast, saturation/hue, tint and
// opacity in that order. Reordering these steps changes the output.
func applyPixels(src image.Image, p Params) *image.NRGBA {
	var img *image.NRGBA
	if p.Blur > epsilon {
		img = imaging.Clone(blur.Gaussian(src, p.Blur))
	} else {
		img = imaging.Clone(src)
	}

	doBrightness := !near(p.Brightness, 1)
	doContrast := !near(p.Contrast, 1)
	doHSL := !near(p.Saturation, 1) || !near(math.Mod(p.Hue, 360), 0)
	doTint := p.Tint > epsilon
	doOpacity := !near(p.Opacity, 1)

	pix := img.Pix
	for y := 0; y < img.Rect.Dy(); y++ {
		row := pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 0; i+3 < len(row); i += 4 {
			r, g, b := float64(row[i]), float64(row[i+1]), float64(row[i+2])

			if doBrightness {
				r = clamp255(r * p.Brightness)
				g = clamp255(g * p.Brightness)
				b = clamp255(b * p.Brightness)
			}
			if doContrast {
				r = clamp255(((r/255-0.5)*p.Contrast + 0.5) * 255)
				g = clamp255(((g/255-0.5)*p.Contrast + 0.5) * 255)
				b = clamp255(((b/255-0.5)*p.Contrast + 0.5) * 255)
			}
			if doHSL {
				h, s, l := rgbToHSL(r/255, g/255, b/255)
				s = math.Min(1, s*p.Saturation)
				h = math.Mod(h+p.Hue, 360)
				if h < 0 {
					h += 360
				}
				rf, gf, bf := hslToRGB(h, s, l)
				r, g, b = clamp255(rf*255), clamp255(gf*255), clamp255(bf*255)
			}
			if doTint {
				sr := clamp255(0.393*r + 0.769*g + 0.189*b)
				sg := clamp255(0.349*r + 0.686*g + 0.168*b)
				sb := clamp255(0.272*r + 0.534*g + 0.131*b)
				r = clamp255(r + (sr-r)*p.Tint)
				g = clamp255(g + (sg-g)*p.Tint)
				b = clamp255(b + (sb-b)*p.Tint)
			}

			row[i] = uint8(math.Round(r))
			row[i+1] = uint8(math.Round(g))
			row[i+2] = uint8(math.Round(b))
			if doOpacity {
				row[i+3] = uint8(math.Round(clamp255(float64(row[i+3]) * p.Opacity)))
			}
		}
	}
	return img
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// rgbToHSL takes channels in [0,1] and returns hue in degrees.
func rgbToHSL(r, g, b float64) (h, s, l float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2
	if maxC == minC {
		return 0, 0, l
	}
	d := maxC - minC
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}
	switch maxC {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, l
}

func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h / 360
	return hueToChannel(p, q, hk+1.0/3), hueToChannel(p, q, hk), hueToChannel(p, q, hk-1.0/3)
}

func hueToChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}
