package canvas

import (
	"image"

	"golang.org/x/image/vector"
)

// kappa places cubic control points so four curves approximate an ellipse.
const kappa = 0.5522847498

type segKind uint8

const (
	segMove segKind = iota
	segLine
	segCube
	segClose
)

type segment struct {
	kind segKind
	pts  [3][2]float32
}

// Path is a sequence of closed or open contours in surface coordinates.
// The zero value is an empty path.
type Path struct {
	segs []segment
}

// MoveTo starts a new contour.
func (p *Path) MoveTo(x, y float64) {
	p.segs = append(p.segs, segment{kind: segMove, pts: [3][2]float32{{float32(x), float32(y)}}})
}

// LineTo adds a straight edge.
func (p *Path) LineTo(x, y float64) {
	p.segs = append(p.segs, segment{kind: segLine, pts: [3][2]float32{{float32(x), float32(y)}}})
}

// CubeTo adds a cubic Bézier curve.
func (p *Path) CubeTo(x1, y1, x2, y2, x, y float64) {
	p.segs = append(p.segs, segment{kind: segCube, pts: [3][2]float32{
		{float32(x1), float32(y1)},
		{float32(x2), float32(y2)},
		{float32(x), float32(y)},
	}})
}

// Close closes the current contour.
func (p *Path) Close() {
	p.segs = append(p.segs, segment{kind: segClose})
}

// Rect adds an axis aligned rectangle contour.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Ellipse adds an ellipse contour centered at (cx, cy).
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	ox, oy := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubeTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubeTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubeTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubeTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.Close()
}

// Polygon adds a closed contour through pts, given as x,y pairs.
func (p *Path) Polygon(pts [][2]float64) {
	if len(pts) == 0 {
		return
	}
	p.MoveTo(pts[0][0], pts[0][1])
	for _, pt := range pts[1:] {
		p.LineTo(pt[0], pt[1])
	}
	p.Close()
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	return p == nil || len(p.segs) == 0
}

// Rasterize returns the path's coverage over a surface of the given size.
// Pixels outside every contour are zero.
func (p *Path) Rasterize(size image.Point) *image.Alpha {
	dst := image.NewAlpha(image.Rectangle{Max: size})
	if p.Empty() || size.X <= 0 || size.Y <= 0 {
		return dst
	}

	z := vector.NewRasterizer(size.X, size.Y)
	open := false
	for _, s := range p.segs {
		switch s.kind {
		case segMove:
			if open {
				z.ClosePath()
			}
			z.MoveTo(s.pts[0][0], s.pts[0][1])
			open = true
		case segLine:
			z.LineTo(s.pts[0][0], s.pts[0][1])
		case segCube:
			z.CubeTo(s.pts[0][0], s.pts[0][1], s.pts[1][0], s.pts[1][1], s.pts[2][0], s.pts[2][1])
		case segClose:
			if open {
				z.ClosePath()
				open = false
			}
		}
	}
	if open {
		z.ClosePath()
	}
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}
