package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"bananalab/internal/assets"
	"bananalab/internal/filters"
	"bananalab/internal/logging"
	"bananalab/internal/metrics"
	"bananalab/internal/page"
	"bananalab/internal/render"
)

var log = logging.Component("thumbnail")

// ErrGeneration wraps any failure of a single page generation.
var ErrGeneration = errors.New("thumbnail generation failed")

var errBatchStopped = fmt.Errorf("%w: batch stopped", ErrGeneration)

// Pauser provides backpressure between pages of a batch. WaitIfPaused
// returns false when the batch should stop.
type Pauser interface {
	WaitIfPaused() bool
}

// Options configure a Generator. Zero fields take the defaults.
type Options struct {
	Format    Format
	Quality   int
	BatchSize int
	Strategy  filters.Strategy
}

// Generator produces thumbnails. Renders are serialized; a Generator may
// be shared between goroutines.
type Generator struct {
	renderPage func(context.Context, *page.Page, image.Point, render.Options) (*image.RGBA, error)
	assets     *assets.Cache
	cache      *Cache
	opts       Options
	pauser     Pauser
	observer   StateObserver

	renderMu sync.Mutex
}

// NewGenerator wires a generator. pauser may be nil.
func NewGenerator(r *render.Renderer, a *assets.Cache, c *Cache, opts Options, pauser Pauser) *Generator {
	if opts.Format == "" {
		opts.Format = FormatJPEG
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = assets.DefaultBatchSize
	}
	return &Generator{renderPage: r.RenderPage, assets: a, cache: c, opts: opts, pauser: pauser}
}

// SetStateObserver installs a hook called on every state transition.
func (g *Generator) SetStateObserver(o StateObserver) {
	g.observer = o
}

// Cache returns the thumbnail cache.
func (g *Generator) Cache() *Cache { return g.cache }

// GenerateOne returns the thumbnail of p fitted to target, from the cache
// when the page is unchanged. Progress is reported at start, after assets
// load, after rendering and once cached.
func (g *Generator) GenerateOne(ctx context.Context, p *page.Page, target image.Point, onProgress ProgressFunc) (*Encoded, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil page", ErrGeneration)
	}
	t := newTracker(p.ID, g.observer)
	enc, err := g.generate(ctx, p, target, t, onProgress)
	if err != nil {
		t.fail()
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	return enc, nil
}

func (g *Generator) generate(ctx context.Context, p *page.Page, target image.Point, t *tracker, onProgress ProgressFunc) (enc *Encoded, err error) {
	defer func() {
		if r := recover(); r != nil {
			enc = nil
			err = fmt.Errorf("%w: page %s: %v", ErrGeneration, p.ID, r)
		}
	}()

	const steps = 3
	report(onProgress, 0, steps, "Starting", p.ID)

	size, _ := render.OutputSize(p, target)
	fingerprint := page.Fingerprint(p)
	if cached, ok := g.cache.Get(p.ID, size, fingerprint); ok {
		if err := t.advance(StateCached); err != nil {
			return nil, err
		}
		metrics.ThumbnailGenerationsTotal.WithLabelValues("cached").Inc()
		report(onProgress, steps, steps, "Cached", p.ID)
		log.Debug("cache hit for %s", Key(p.ID, size))
		return cached, nil
	}

	if err := t.advance(StateAssetsLoading); err != nil {
		return nil, err
	}
	refs := page.AssetRefs(p)
	g.assets.Pin(refs...)
	defer g.assets.Unpin(refs...)

	start := time.Now()
	loaded := g.assets.PreloadAll(ctx, refs, g.opts.BatchSize, nil)
	metrics.ThumbnailGenerationDuration.WithLabelValues("assets").Observe(time.Since(start).Seconds())
	if loaded < len(refs) {
		log.Debug("page %s: %d of %d assets available", p.ID, loaded, len(refs))
	}
	report(onProgress, 1, steps, "Assets loaded", p.ID)

	if err := t.advance(StateRendering); err != nil {
		return nil, err
	}
	start = time.Now()
	g.renderMu.Lock()
	img, err := g.renderPage(ctx, p, target, render.Options{Strategy: g.opts.Strategy})
	g.renderMu.Unlock()
	metrics.ThumbnailGenerationDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	// Assets skipped because the caller gave up must not be cached as the
	// page's look.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: page %s: %w", ErrGeneration, p.ID, err)
	}
	report(onProgress, 2, steps, "Rendered", p.ID)

	if err := t.advance(StateEncoding); err != nil {
		return nil, err
	}
	start = time.Now()
	data, err := Encode(img, g.opts.Format, g.opts.Quality)
	metrics.ThumbnailGenerationDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: page %s: %w", ErrGeneration, p.ID, err)
	}

	enc = &Encoded{
		PageID:      p.ID,
		Format:      g.opts.Format,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Data:        data,
		Fingerprint: fingerprint,
	}
	g.cache.Put(enc)
	if err := t.advance(StateCached); err != nil {
		return nil, err
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	report(onProgress, steps, steps, "Cached", p.ID)
	return enc, nil
}

// GenerateMany returns a thumbnail for every page, keyed by page id. Assets
// of all pages are preloaded first in fixed-size batches; pages are then
// generated one at a time in input order. A page that fails yields a
// placeholder instead of an error.
func (g *Generator) GenerateMany(ctx context.Context, pages []*page.Page, target image.Point, onProgress ProgressFunc) map[string]*Encoded {
	start := time.Now()
	results := make(map[string]*Encoded, len(pages))
	metrics.ThumbnailBatchPages.Observe(float64(len(pages)))
	defer func() {
		metrics.ThumbnailBatchDuration.Observe(time.Since(start).Seconds())
	}()

	var refs []string
	for _, p := range pages {
		if p != nil {
			refs = append(refs, page.AssetRefs(p)...)
		}
	}
	g.assets.Pin(refs...)
	defer g.assets.Unpin(refs...)

	g.assets.PreloadAll(ctx, refs, g.opts.BatchSize, func(done, total int) {
		report(onProgress, 0, len(pages), fmt.Sprintf("Loading assets (%d/%d)", done, total), "")
	})

	stopped := false
	for i, p := range pages {
		if !stopped && g.pauser != nil && !g.pauser.WaitIfPaused() {
			log.Warn("batch stopped after %d of %d pages, remaining pages get placeholders", i, len(pages))
			stopped = true
		}
		if p == nil {
			continue
		}
		if _, dup := results[p.ID]; dup {
			log.Warn("duplicate page id %q, later page replaces earlier one", p.ID)
		}

		t := newTracker(p.ID, g.observer)
		var enc *Encoded
		err := errBatchStopped
		if !stopped {
			enc, err = g.generate(ctx, p, target, t, nil)
		}
		if err != nil {
			log.Warn("page %s: %v, using placeholder", p.ID, err)
			t.fail()
			enc = g.placeholder(p, target)
			if enc != nil {
				_ = t.advance(StatePlaceholderReturned)
			}
		}
		results[p.ID] = enc
		report(onProgress, i+1, len(pages), fmt.Sprintf("Generated page %d of %d", i+1, len(pages)), p.ID)
	}

	log.Info("generated %d thumbnails in %v", len(results), time.Since(start))
	return results
}

// placeholder encodes the fallback image of p. It is not cached.
func (g *Generator) placeholder(p *page.Page, target image.Point) *Encoded {
	size, _ := render.OutputSize(p, target)
	data, err := Encode(Placeholder(p, size), g.opts.Format, g.opts.Quality)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		log.Error("page %s: placeholder encode failed: %v", p.ID, err)
		return nil
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("placeholder").Inc()
	return &Encoded{
		PageID:      p.ID,
		Format:      g.opts.Format,
		Width:       size.X,
		Height:      size.Y,
		Data:        data,
		Fingerprint: page.Fingerprint(p),
		Placeholder: true,
	}
}
