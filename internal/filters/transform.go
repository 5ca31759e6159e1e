package filters

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// transformMatrix maps source to destination coordinates: translate to the
// center, scale (negative for flips), rotate, translate back.
func transformMatrix(p Params, w, h int) f64.Aff3 {
	sx, sy := p.Scale, p.Scale
	if p.FlipH {
		sx = -sx
	}
	if p.FlipV {
		sy = -sy
	}
	theta := p.Rotate * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	cx, cy := float64(w)/2, float64(h)/2

	a, b := sx*cos, -sx*sin
	d, e := sy*sin, sy*cos
	return f64.Aff3{
		a, b, cx - (a*cx + b*cy),
		d, e, cy - (d*cx + e*cy),
	}
}

// applyTransform renders src into a same-sized transparent surface through
// the affine transform. Quarter-turn rotations and flips at scale 1 map
// pixels exactly, so they use nearest neighbor sampling.
func applyTransform(src *image.NRGBA, p Params) *image.NRGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	var interp draw.Transformer = draw.BiLinear
	if near(p.Scale, 1) && near(math.Mod(p.Rotate, 90), 0) && w == h {
		interp = draw.NearestNeighbor
	} else if near(p.Scale, 1) && near(math.Mod(p.Rotate, 180), 0) {
		interp = draw.NearestNeighbor
	}
	interp.Transform(dst, transformMatrix(p, w, h), src, src.Bounds(), draw.Over, nil)
	return dst
}
