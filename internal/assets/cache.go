package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"bananalab/internal/logging"
	"bananalab/internal/metrics"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var log = logging.Component("assets")

var (
	// ErrLoadFailed reports a network, read or decode failure.
	ErrLoadFailed = errors.New("asset load failed")
	// ErrTimeout reports an asset that did not load within the timeout.
	ErrTimeout = errors.New("asset load timed out")
)

// Defaults for Options.
const (
	DefaultTimeout   = 3 * time.Second
	DefaultCeiling   = 20
	DefaultFloor     = 10
	DefaultBatchSize = 5
)

// Options configure a Cache. Zero fields take the defaults.
type Options struct {
	Timeout      time.Duration
	Ceiling      int
	Floor        int
	MaxDimension int
	MaxPixels    int
	UseVips      bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Ceiling <= 0 {
		o.Ceiling = DefaultCeiling
	}
	if o.Floor <= 0 || o.Floor > o.Ceiling {
		o.Floor = min(DefaultFloor, o.Ceiling)
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = MaxImageDimension
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = MaxImagePixels
	}
	return o
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries int
	Held    int
	Pinned  int
	Loads   int64
	Hits    int64
	Misses  int64
}

// Cache memoizes decoded bitmaps by reference. It is safe for concurrent
// use; concurrent requests for one reference share a single load.
type Cache struct {
	fetcher Fetcher
	opts    Options

	mu      sync.Mutex
	entries *lru.Cache
	held    map[string]image.Image
	pins    map[string]int

	group  singleflight.Group
	loads  atomic.Int64
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache returns an empty cache that loads through fetcher.
func NewCache(fetcher Fetcher, opts Options) *Cache {
	c := &Cache{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		entries: lru.New(0),
		held:    make(map[string]image.Image),
		pins:    make(map[string]int),
	}
	c.entries.OnEvicted = c.onEvicted
	return c
}

// onEvicted runs with mu held.
func (c *Cache) onEvicted(key lru.Key, value interface{}) {
	ref := key.(string)
	metrics.AssetCacheEvictions.Inc()
	if c.pins[ref] > 0 {
		c.held[ref] = value.(image.Image)
		metrics.AssetCacheHeld.Set(float64(len(c.held)))
	}
}

func (c *Cache) lookup(ref string) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries.Get(ref); ok {
		return v.(image.Image)
	}
	if img, ok := c.held[ref]; ok {
		return img
	}
	return nil
}

func (c *Cache) store(ref string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.held, ref)
	c.entries.Add(ref, img)
	if c.entries.Len() > c.opts.Ceiling {
		for c.entries.Len() > c.opts.Floor {
			c.entries.RemoveOldest()
		}
		log.Debug("evicted assets down to %d entries", c.entries.Len())
	}
	metrics.AssetCacheEntries.Set(float64(c.entries.Len()))
	metrics.AssetCacheHeld.Set(float64(len(c.held)))
}

// Pin protects refs from losing their bitmap while a generation uses them.
func (c *Cache) Pin(refs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		c.pins[ref]++
	}
}

// Unpin releases pins taken by Pin. Evicted entries with no remaining
// pins are dropped.
func (c *Cache) Unpin(refs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ref := range refs {
		n := c.pins[ref] - 1
		if n > 0 {
			c.pins[ref] = n
			continue
		}
		delete(c.pins, ref)
		delete(c.held, ref)
	}
	metrics.AssetCacheHeld.Set(float64(len(c.held)))
}

// Get returns the bitmap for ref, loading it on a miss.
func (c *Cache) Get(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrLoadFailed)
	}
	if img := c.lookup(ref); img != nil {
		c.hits.Add(1)
		metrics.AssetCacheHits.Inc()
		return img, nil
	}
	c.misses.Add(1)
	metrics.AssetCacheMisses.Inc()

	v, err, _ := c.group.Do(ref, func() (interface{}, error) {
		if img := c.lookup(ref); img != nil {
			return img, nil
		}
		img, err := c.load(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.store(ref, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Preload returns the bitmap for ref, or nil when it cannot be loaded.
// Failures are logged, never returned.
func (c *Cache) Preload(ctx context.Context, ref string) image.Image {
	img, err := c.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			log.Warn("timed out after %v loading %s", c.opts.Timeout, shortRef(ref))
		} else {
			log.Warn("failed to load %s: %v", shortRef(ref), err)
		}
		return nil
	}
	return img
}

// PreloadAll loads refs in fixed-size batches; no more than batchSize
// loads are in flight at once. onBatch, if set, is called after each batch
// with the number of refs processed so far. It returns how many refs
// produced a bitmap.
func (c *Cache) PreloadAll(ctx context.Context, refs []string, batchSize int, onBatch func(done, total int)) int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	refs = unique(refs)

	var loaded atomic.Int64
	for start := 0; start < len(refs); start += batchSize {
		if ctx.Err() != nil {
			log.Debug("preload cancelled after %d of %d assets", start, len(refs))
			break
		}
		end := min(start+batchSize, len(refs))

		var g errgroup.Group
		for _, ref := range refs[start:end] {
			g.Go(func() error {
				if c.Preload(ctx, ref) != nil {
					loaded.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
		metrics.AssetPreloadBatches.Inc()

		if onBatch != nil {
			onBatch(end, len(refs))
		}
	}
	return int(loaded.Load())
}

func (c *Cache) load(ctx context.Context, ref string) (image.Image, error) {
	source := SourceOf(ref)
	start := time.Now()
	c.loads.Add(1)
	metrics.AssetPreloadInFlight.Inc()
	defer metrics.AssetPreloadInFlight.Dec()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		data, err := c.fetcher.Fetch(ctx, ref)
		if err != nil {
			done <- result{err: err}
			return
		}
		img, err := Decode(data, c.opts.MaxDimension, c.opts.MaxPixels, c.opts.UseVips)
		done <- result{img: img, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	metrics.AssetLoadDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	switch {
	case res.err == nil:
		metrics.AssetLoadsTotal.WithLabelValues(source, "success").Inc()
		return res.img, nil
	case errors.Is(res.err, context.DeadlineExceeded):
		metrics.AssetLoadsTotal.WithLabelValues(source, "timeout").Inc()
		return nil, fmt.Errorf("%w: %s", ErrTimeout, shortRef(ref))
	default:
		metrics.AssetLoadsTotal.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, res.err)
	}
}

// Loads returns how many loads reached the fetcher.
func (c *Cache) Loads() int64 { return c.loads.Load() }

// Len returns the number of cached bitmaps, excluding held entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries: c.entries.Len(),
		Held:    len(c.held),
		Pinned:  len(c.pins),
		Loads:   c.loads.Load(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Clear drops every unpinned entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.entries.Len() > 0 {
		c.entries.RemoveOldest()
	}
	metrics.AssetCacheEntries.Set(0)
	metrics.AssetCacheHeld.Set(float64(len(c.held)))
}

func unique(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// shortRef keeps data URIs out of log lines.
func shortRef(ref string) string {
	if len(ref) > 64 {
		return ref[:48] + "...(" + fmt.Sprint(len(ref)) + " bytes)"
	}
	return ref
}
