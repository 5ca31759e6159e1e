package mask

import (
	"math"
	"strings"

	"bananalab/internal/canvas"
	"bananalab/internal/logging"
	"bananalab/internal/page"
)

var log = logging.Component("mask")

// Type names a clip shape.
type Type string

const (
	Circle    Type = "circle"
	Ellipse   Type = "ellipse"
	Star      Type = "star"
	Hexagon   Type = "hexagon"
	Triangle  Type = "triangle"
	Rectangle Type = "rectangle"
)

// starInnerRatio is the inner vertex radius of a star relative to its
// outer radius.
const starInnerRatio = 0.4

// Parse converts a mask name. An empty name is the rectangle. ok is false
// for unknown names, which also map to the rectangle.
func Parse(name string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case "", Rectangle, "rect":
		return Rectangle, true
	case Circle, Ellipse, Star, Hexagon, Triangle:
		return t, true
	default:
		return Rectangle, false
	}
}

// Path returns the clip geometry of t centered on r.
func Path(t Type, r page.Rect) *canvas.Path {
	p := &canvas.Path{}
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2

	switch t {
	case Circle:
		radius := math.Min(r.Width, r.Height) / 2
		p.Ellipse(cx, cy, radius, radius)
	case Ellipse:
		p.Ellipse(cx, cy, r.Width/2, r.Height/2)
	case Star:
		outer := math.Min(r.Width, r.Height) / 2
		inner := outer * starInnerRatio
		pts := make([][2]float64, 0, 10)
		for i := 0; i < 10; i++ {
			radius := outer
			if i%2 == 1 {
				radius = inner
			}
			// first point straight up
			a := float64(i)*math.Pi/5 - math.Pi/2
			pts = append(pts, [2]float64{cx + radius*math.Cos(a), cy + radius*math.Sin(a)})
		}
		p.Polygon(pts)
	case Hexagon:
		radius := math.Min(r.Width, r.Height) / 2
		pts := make([][2]float64, 0, 6)
		for i := 0; i < 6; i++ {
			a := float64(i) * math.Pi / 3
			pts = append(pts, [2]float64{cx + radius*math.Cos(a), cy + radius*math.Sin(a)})
		}
		p.Polygon(pts)
	case Triangle:
		p.Polygon([][2]float64{
			{cx, r.Y},
			{r.X + r.Width, r.Y + r.Height},
			{r.X, r.Y + r.Height},
		})
	default:
		p.Rect(r.X, r.Y, r.Width, r.Height)
	}
	return p
}

// Clip saves the context state and clips subsequent paint to the mask
// shape over r. The caller must Restore the context on every exit path.
func Clip(c *canvas.Context, name string, r page.Rect) {
	t, ok := Parse(name)
	if !ok {
		log.Warn("unknown mask type %q, clipping to rectangle", name)
	}
	c.Save()
	c.ClipPath(Path(t, r))
}
