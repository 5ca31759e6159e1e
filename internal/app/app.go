package app

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bananalab/internal/assets"
	"bananalab/internal/blob"
	"bananalab/internal/filters"
	"bananalab/internal/logging"
	"bananalab/internal/memory"
	"bananalab/internal/page"
	"bananalab/internal/render"
	"bananalab/internal/server"
	"bananalab/internal/startup"
	"bananalab/internal/store"
	"bananalab/internal/thumbnail"
	"bananalab/internal/workers"
)

var log = logging.Component("app")

// DefaultTarget is the thumbnail bounding box when none is given.
var DefaultTarget = image.Pt(300, 300)

// App owns the engine components for one process.
type App struct {
	cfg       *startup.Config
	blobs     *blob.Registry
	assets    *assets.Cache
	thumbs    *thumbnail.Cache
	generator *thumbnail.Generator
	monitor   *memory.Monitor
	store     *store.Store
	vips      bool

	mu sync.Mutex
	// pageKeys maps a document path to the blob keys issued for it.
	pageKeys map[string][]string
	// docPages maps a document path to the page ids it last held.
	docPages map[string][]string
}

// New builds the engine from cfg. The store is opened when
// cfg.DatabasePath is set.
func New(ctx context.Context, cfg *startup.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		blobs:    blob.NewRegistry(cfg.BlobCacheEntries),
		pageKeys: make(map[string][]string),
		docPages: make(map[string][]string),
	}

	opts := cfg.AssetOptions()
	if opts.UseVips {
		if err := assets.InitVips(); err != nil {
			log.Warn("libvips unavailable, decoding with imaging: %v", err)
			opts.UseVips = false
		} else {
			a.vips = true
		}
	}

	fetcher := &assets.DefaultFetcher{
		Client: &http.Client{Timeout: cfg.AssetTimeout},
		Blobs:  a.blobs,
	}
	a.assets = assets.NewCache(fetcher, opts)
	a.thumbs = thumbnail.NewCache(cfg.ThumbnailCacheEntries)

	pipeline := filters.NewPipeline(workers.ForCPU(8))
	renderer := render.New(a.assets, pipeline)

	a.monitor = memory.NewMonitor(memory.DefaultConfig())
	a.monitor.Start()
	a.generator = thumbnail.NewGenerator(renderer, a.assets, a.thumbs, cfg.ThumbnailOptions(), a.monitor)

	if cfg.DatabasePath != "" {
		s, err := store.Open(ctx, cfg.DatabasePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = s
	}
	return a, nil
}

// Close releases every component. It is safe to call once.
func (a *App) Close() error {
	a.monitor.Stop()
	a.blobs.ReleaseAll()
	a.assets.Clear()
	if a.vips {
		assets.ShutdownVips()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Generator returns the thumbnail generator.
func (a *App) Generator() *thumbnail.Generator { return a.generator }

// ServerOptions returns what the operational server reports on.
func (a *App) ServerOptions() server.Options {
	return server.Options{Assets: a.assets, Thumbnails: a.thumbs, Memory: a.monitor}
}

// LoadDocument reads and prepares the pages of the document at path.
func (a *App) LoadDocument(path string) ([]*page.Page, error) {
	pages, err := page.Load(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	a.prepare(abs, pages)
	return pages, nil
}

// prepare fills missing page ids, anchors relative file references to the
// document directory and converts data URIs to blob handles.
func (a *App) prepare(docPath string, pages []*page.Page) {
	base := filepath.Dir(docPath)
	stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))

	var keys []string
	convert := func(ref, key string) string {
		switch assets.SourceOf(ref) {
		case assets.SourceData:
			h, err := a.blobs.ToHandle(ref, key)
			if err != nil {
				log.Warn("%s: %v", key, err)
				return ref
			}
			keys = append(keys, key)
			return h
		case assets.SourceFile:
			if ref != "" && !strings.HasPrefix(strings.ToLower(ref), "file://") && !filepath.IsAbs(ref) {
				return filepath.Join(base, ref)
			}
		}
		return ref
	}

	ids := make([]string, 0, len(pages))
	seen := make(map[string]bool, len(pages))
	for i, p := range pages {
		if p.ID == "" {
			p.ID = fmt.Sprintf("%s-%d", stem, i+1)
		}
		if seen[p.ID] {
			id := p.ID
			for n := 2; seen[p.ID]; n++ {
				p.ID = fmt.Sprintf("%s-%d", id, n)
			}
			log.Warn("%s: duplicate page id %q renamed to %q", docPath, id, p.ID)
		}
		seen[p.ID] = true
		ids = append(ids, p.ID)
		p.BackgroundImage = convert(p.BackgroundImage, p.ID+"/background")
		for ci := range p.Cells {
			for ei := range p.Cells[ci].Elements {
				el := &p.Cells[ci].Elements[ei]
				if el.Type != page.ElementImage {
					continue
				}
				key := fmt.Sprintf("%s/%s", p.ID, el.ID)
				if el.ID == "" {
					key = fmt.Sprintf("%s/%d.%d", p.ID, ci, ei)
				}
				el.Content = convert(el.Content, key)
			}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// keys no longer referenced by this document free their handles
	live := make(map[string]bool, len(keys))
	for _, k := range keys {
		live[k] = true
	}
	for _, k := range a.pageKeys[docPath] {
		if !live[k] {
			a.blobs.Release(k)
		}
	}
	current := make(map[string]bool, len(ids))
	for _, id := range ids {
		current[id] = true
	}
	for _, id := range a.docPages[docPath] {
		if !current[id] {
			a.thumbs.Invalidate(id)
		}
	}
	a.pageKeys[docPath] = keys
	a.docPages[docPath] = ids
}

// Forget drops everything held for a removed document: cached thumbnails
// of its pages and the blob handles issued for it.
func (a *App) Forget(docPath string) {
	if abs, err := filepath.Abs(docPath); err == nil {
		docPath = abs
	}
	a.mu.Lock()
	keys := a.pageKeys[docPath]
	ids := a.docPages[docPath]
	delete(a.pageKeys, docPath)
	delete(a.docPages, docPath)
	a.mu.Unlock()

	for _, k := range keys {
		a.blobs.Release(k)
	}
	for _, id := range ids {
		a.thumbs.Invalidate(id)
	}
	log.Info("forgot %s (%d pages)", docPath, len(ids))
}

// Result summarizes one processed document.
type Result struct {
	Pages        int
	Placeholders int
	Files        []string
	Duration     time.Duration
}

// ProcessDocument renders every page of the document at path, writes the
// thumbnails to the output directory and saves them to the store.
func (a *App) ProcessDocument(ctx context.Context, path string, target image.Point, onProgress thumbnail.ProgressFunc) (*Result, error) {
	start := time.Now()
	pages, err := a.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		for _, w := range page.Validate(p) {
			log.Debug("%s: %s", p.ID, w)
		}
	}

	results := a.generator.GenerateMany(ctx, pages, target, onProgress)
	// A cancelled batch holds placeholders; keep the files already on disk.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res := &Result{Pages: len(results)}
	for _, enc := range results {
		if enc != nil && enc.Placeholder {
			res.Placeholders++
		}
	}

	files, err := a.writeOutputs(pages, results)
	res.Files = files
	if err != nil {
		return res, err
	}
	if a.store != nil {
		if err := a.store.SaveThumbnails(ctx, results); err != nil {
			return res, fmt.Errorf("save thumbnails: %w", err)
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

// writeOutputs writes results in page order. Files are replaced atomically.
func (a *App) writeOutputs(pages []*page.Page, results map[string]*thumbnail.Encoded) ([]string, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var files []string
	for _, p := range pages {
		enc := results[p.ID]
		if enc == nil {
			continue
		}
		name := OutputName(p.ID, enc.Format)
		path := filepath.Join(a.cfg.OutputDir, name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, enc.Data, 0o644); err != nil {
			return files, fmt.Errorf("write %s: %w", name, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return files, fmt.Errorf("write %s: %w", name, err)
		}
		files = append(files, path)
	}
	return files, nil
}

// OutputName is the file name of a page thumbnail. Characters outside
// [A-Za-z0-9._-] become '_'.
func OutputName(pageID string, f thumbnail.Format) string {
	var b strings.Builder
	for _, r := range pageID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		name = "page"
	}
	return name + "." + f.Ext()
}
