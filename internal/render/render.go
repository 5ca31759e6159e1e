package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"bananalab/internal/assets"
	"bananalab/internal/canvas"
	"bananalab/internal/coverfit"
	"bananalab/internal/filters"
	"bananalab/internal/logging"
	"bananalab/internal/metrics"
	"bananalab/internal/page"
)

var log = logging.Component("render")

// ErrPageRender reports a page that could not be composited.
var ErrPageRender = errors.New("page render failed")

// White is the background used when a page has no parseable color.
var White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Options are per-call render settings.
type Options struct {
	// Strategy selects how image filters are applied.
	Strategy filters.Strategy
}

// Renderer paints pages. It holds no per-page state and may be shared.
type Renderer struct {
	assets   *assets.Cache
	pipeline *filters.Pipeline
}

// New returns a renderer that loads images through cache and filters them
// with pipeline.
func New(cache *assets.Cache, pipeline *filters.Pipeline) *Renderer {
	return &Renderer{assets: cache, pipeline: pipeline}
}

// OutputSize scales the page's native size so its largest side matches
// the target's largest side. Pages without a native size render at the
// target size. The returned scale converts page pixels to output pixels.
func OutputSize(p *page.Page, target image.Point) (image.Point, float64) {
	tw, th := max(target.X, 1), max(target.Y, 1)
	if p == nil || p.Width <= 0 || p.Height <= 0 {
		return image.Pt(tw, th), 1
	}
	scale := float64(max(tw, th)) / float64(max(p.Width, p.Height))
	w := int(math.Round(float64(p.Width) * scale))
	h := int(math.Round(float64(p.Height) * scale))
	return image.Pt(max(w, 1), max(h, 1)), scale
}

// pixelRect rounds r to the pixel grid.
func pixelRect(r page.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)), int(math.Round(r.Y+r.Height)),
	)
}

// RenderPage composites p onto a new surface sized by OutputSize. Once
// painting starts it runs to completion; ctx only bounds asset loads.
func (r *Renderer) RenderPage(ctx context.Context, p *page.Page, target image.Point, opts Options) (img *image.RGBA, err error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil page", ErrPageRender)
	}
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = fmt.Errorf("%w: page %s: %v", ErrPageRender, p.ID, rec)
		}
		metrics.PageRenderDuration.Observe(time.Since(start).Seconds())
	}()

	size, scale := OutputSize(p, target)
	c := canvas.New(size.X, size.Y)
	c.Fill(page.ParseColor(p.BackgroundColor, White))
	r.paintBackground(ctx, c, p.BackgroundImage)

	bounds := page.CellBounds(p, float64(size.X), float64(size.Y))
	for i, cell := range p.RenderedCells() {
		for _, el := range cell.VisibleElements() {
			status := "success"
			if err := r.renderElement(ctx, c, el, bounds[i], scale, opts); err != nil {
				status = "error"
				if errors.Is(err, errSkipped) {
					status = "skipped"
					log.Debug("page %s element %s skipped: %v", p.ID, el.ID, err)
				} else {
					log.Warn("page %s element %s failed: %v", p.ID, el.ID, err)
				}
			}
			metrics.ElementsRenderedTotal.WithLabelValues(string(el.Type), status).Inc()
		}
	}

	dumpSurface("page-"+p.ID, c.Image())
	log.Debug("rendered page %s at %dx%d in %v", p.ID, size.X, size.Y, time.Since(start))
	return c.Image(), nil
}

// paintBackground cover-fits ref over the whole surface without filters.
func (r *Renderer) paintBackground(ctx context.Context, c *canvas.Context, ref string) {
	if ref == "" {
		return
	}
	src := r.assets.Preload(ctx, ref)
	if src == nil {
		return
	}
	w, h := c.Width(), c.Height()
	c.DrawImage(filters.Resize(coverfit.Apply(src, w, h), w, h), c.Bounds())
}
