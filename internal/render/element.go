package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"bananalab/internal/canvas"
	"bananalab/internal/coverfit"
	"bananalab/internal/filters"
	"bananalab/internal/mask"
	"bananalab/internal/page"
)

// errSkipped marks an element that was left out without a fault, such as
// an image whose asset is unavailable.
var errSkipped = errors.New("element skipped")

// defaultFontSize applies when a text element has no style size, in page
// pixels.
const defaultFontSize = 16

// renderElement paints one element inside cell. The context's clip state
// is restored on every exit path, including panics.
func (r *Renderer) renderElement(ctx context.Context, c *canvas.Context, el page.Element, cell page.Rect, scale float64, opts Options) (err error) {
	rect := page.ResolveRect(el.Position, el.Size, cell, scale)
	dst := pixelRect(rect).Intersect(c.Bounds())
	if dst.Empty() {
		return fmt.Errorf("%w: %s lies outside the surface", errSkipped, el.ID)
	}

	depth := c.Depth()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("element %s panicked: %v", el.ID, rec)
		}
		for c.Depth() > depth {
			c.Restore()
		}
	}()

	if el.Mask != nil {
		mask.Clip(c, el.Mask.Type, rect)
	}

	switch el.Type {
	case page.ElementImage:
		return r.paintImage(ctx, c, el, pixelRect(rect), opts)
	case page.ElementText:
		return paintText(c, el, dst, scale)
	default:
		return fmt.Errorf("%w: unsupported element type %q", errSkipped, el.Type)
	}
}

// maxAreaFactor bounds an element's working buffer relative to the
// surface area.
const maxAreaFactor = 4

// paintImage draws the cover-cropped, filtered asset into dst. dst is the
// unclipped element rectangle so the crop keeps the element's aspect. An
// element far larger than the surface is filtered only through its visible
// window, with transforms applied around the window's center.
func (r *Renderer) paintImage(ctx context.Context, c *canvas.Context, el page.Element, dst image.Rectangle, opts Options) error {
	src := r.assets.Preload(ctx, el.Content)
	if src == nil {
		return fmt.Errorf("%w: asset unavailable", errSkipped)
	}
	if dst.Dx() <= 0 || dst.Dy() <= 0 {
		return fmt.Errorf("%w: empty destination", errSkipped)
	}
	b := src.Bounds()
	crop := coverfit.ResolveCrop(float64(b.Dx()), float64(b.Dy()), float64(dst.Dx()), float64(dst.Dy()))

	bounds := c.Bounds()
	if int64(dst.Dx())*int64(dst.Dy()) > maxAreaFactor*int64(bounds.Dx())*int64(bounds.Dy()) {
		window := dst.Intersect(bounds)
		if window.Empty() {
			return fmt.Errorf("%w: %s lies outside the surface", errSkipped, el.ID)
		}
		log.Debug("element %s: %dx%d exceeds the surface, painting %dx%d window", el.ID, dst.Dx(), dst.Dy(), window.Dx(), window.Dy())
		crop = crop.Window(dst, window)
		dst = window
	}
	cropped := coverfit.Extract(src, crop)
	w, h := dst.Dx(), dst.Dy()

	if el.Filters == nil {
		c.DrawImage(filters.Resize(cropped, w, h), dst)
		return nil
	}
	out, err := r.pipeline.Apply(cropped, el.Filters, w, h, opts.Strategy)
	if err != nil {
		log.Warn("element %s: drawing unfiltered: %v", el.ID, err)
		out = filters.Resize(cropped, w, h)
	}
	c.DrawImage(out, dst)
	return nil
}

func paintText(c *canvas.Context, el page.Element, dst image.Rectangle, scale float64) error {
	size := float64(defaultFontSize)
	col := color.Color(color.Black)
	if el.Style != nil {
		if el.Style.FontSize > 0 {
			size = el.Style.FontSize
		}
		col = page.ParseColor(el.Style.Color, color.NRGBA{A: 0xff})
	}
	return drawText(c, el.Content, dst, size*scale, el.Style.Bold(), col)
}
