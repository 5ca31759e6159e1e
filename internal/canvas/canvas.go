package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"bananalab/internal/logging"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var log = logging.Component("canvas")

// Context is an offscreen RGBA surface with a clip stack. The clip is nil
// when painting is unrestricted.
type Context struct {
	img   *image.RGBA
	clip  *image.Alpha
	stack []*image.Alpha
}

// New allocates a transparent surface of w x h pixels.
func New(w, h int) *Context {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Context{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Image returns the backing surface.
func (c *Context) Image() *image.RGBA { return c.img }

// Bounds returns the surface bounds.
func (c *Context) Bounds() image.Rectangle { return c.img.Bounds() }

// Width returns the surface width in pixels.
func (c *Context) Width() int { return c.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (c *Context) Height() int { return c.img.Rect.Dy() }

// Depth returns the number of unmatched Save calls.
func (c *Context) Depth() int { return len(c.stack) }

// Save pushes the current clip state.
func (c *Context) Save() {
	c.stack = append(c.stack, c.clip)
}

// Restore pops the clip state pushed by the matching Save.
func (c *Context) Restore() {
	if len(c.stack) == 0 {
		log.Warn("restore without matching save")
		return
	}
	n := len(c.stack) - 1
	c.clip = c.stack[n]
	c.stack[n] = nil
	c.stack = c.stack[:n]
}

// Clipped reports whether a clip is active.
func (c *Context) Clipped() bool { return c.clip != nil }

// ClipPath intersects the current clip with p. Clip masks are never
// modified in place, so saved states stay valid.
func (c *Context) ClipPath(p *Path) {
	cov := p.Rasterize(c.img.Rect.Size())
	if c.clip != nil {
		for i, a := range c.clip.Pix {
			cov.Pix[i] = uint8(uint32(cov.Pix[i]) * uint32(a) / 0xff)
		}
	}
	c.clip = cov
}

// ClipRect intersects the current clip with r.
func (c *Context) ClipRect(r image.Rectangle) {
	var p Path
	p.Rect(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	c.ClipPath(&p)
}

// Fill paints the whole surface with col, honoring the clip.
func (c *Context) Fill(col color.Color) {
	c.FillRect(c.img.Bounds(), col)
}

// FillRect paints r with col, honoring the clip.
func (c *Context) FillRect(r image.Rectangle, col color.Color) {
	r = r.Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	c.composite(r, image.NewUniform(col), image.Point{})
}

// FillPath paints the inside of p with col, honoring the clip.
func (c *Context) FillPath(p *Path, col color.Color) {
	c.Save()
	defer c.Restore()
	c.ClipPath(p)
	c.Fill(col)
}

// DrawImage paints src into dst. src is drawn unscaled from its top-left
// corner, so callers resize it to dst first.
func (c *Context) DrawImage(src image.Image, dst image.Rectangle) {
	clipped := dst.Intersect(c.img.Bounds())
	if clipped.Empty() {
		return
	}
	sp := src.Bounds().Min.Add(clipped.Min.Sub(dst.Min))
	c.composite(clipped, src, sp)
}

// DrawString paints s with face so that its baseline starts at dot.
// Glyphs honor the clip like any other paint.
func (c *Context) DrawString(face font.Face, dot fixed.Point26_6, s string, col color.Color) {
	if s == "" {
		return
	}
	b, _ := font.BoundString(face, s)
	r := image.Rect(
		(dot.X+b.Min.X).Floor(), (dot.Y+b.Min.Y).Floor(),
		(dot.X+b.Max.X).Ceil(), (dot.Y+b.Max.Y).Ceil(),
	)
	if r.Intersect(c.img.Bounds()).Empty() {
		return
	}
	layer := image.NewRGBA(r)
	d := font.Drawer{Dst: layer, Src: image.NewUniform(col), Face: face, Dot: dot}
	d.DrawString(s)
	c.DrawImage(layer, r)
}

func (c *Context) composite(r image.Rectangle, src image.Image, sp image.Point) {
	if c.clip == nil {
		draw.Draw(c.img, r, src, sp, draw.Over)
		return
	}
	draw.DrawMask(c.img, r, src, sp, c.clip, r.Min, draw.Over)
}
