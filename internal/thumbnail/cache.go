package thumbnail

import (
	"fmt"
	"image"
	"sync"

	"bananalab/internal/metrics"

	"github.com/golang/groupcache/lru"
)

// DefaultCacheEntries bounds a Cache when no size is given.
const DefaultCacheEntries = 64

// Key identifies a thumbnail by page and output size.
func Key(pageID string, size image.Point) string {
	return fmt.Sprintf("%s@%dx%d", pageID, size.X, size.Y)
}

// Cache holds encoded thumbnails keyed by page id and output size. An
// entry whose fingerprint no longer matches the page counts as a miss.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	byPage map[string]map[string]struct{}
	bytes  int64
}

// NewCache returns a cache holding at most maxEntries thumbnails.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	c := &Cache{
		lru:    lru.New(maxEntries),
		byPage: make(map[string]map[string]struct{}),
	}
	c.lru.OnEvicted = c.onEvicted
	return c
}

// onEvicted runs with mu held.
func (c *Cache) onEvicted(key lru.Key, value interface{}) {
	enc := value.(*Encoded)
	c.bytes -= int64(enc.Size())
	if keys := c.byPage[enc.PageID]; keys != nil {
		delete(keys, key.(string))
		if len(keys) == 0 {
			delete(c.byPage, enc.PageID)
		}
	}
}

// Get returns the thumbnail for pageID at size if it was rendered from a
// page with the given fingerprint.
func (c *Cache) Get(pageID string, size image.Point, fingerprint uint64) (*Encoded, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(pageID, size)
	v, ok := c.lru.Get(key)
	if !ok {
		metrics.ThumbnailCacheMisses.Inc()
		return nil, false
	}
	enc := v.(*Encoded)
	if enc.Fingerprint != fingerprint {
		c.lru.Remove(key)
		c.updateGauges()
		metrics.ThumbnailCacheMisses.Inc()
		return nil, false
	}
	metrics.ThumbnailCacheHits.Inc()
	return enc, true
}

// Put stores enc under its page id and size.
func (c *Cache) Put(enc *Encoded) {
	if enc == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(enc.PageID, image.Pt(enc.Width, enc.Height))
	c.lru.Remove(key)
	c.lru.Add(key, enc)
	c.bytes += int64(enc.Size())
	if c.byPage[enc.PageID] == nil {
		c.byPage[enc.PageID] = make(map[string]struct{})
	}
	c.byPage[enc.PageID][key] = struct{}{}
	c.updateGauges()
}

// Invalidate drops every size cached for pageID.
func (c *Cache) Invalidate(pageID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.byPage[pageID]))
	for k := range c.byPage[pageID] {
		keys = append(keys, k)
	}
	for _, k := range keys {
		c.lru.Remove(k)
	}
	c.updateGauges()
	return len(keys)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}
	c.updateGauges()
}

// Len returns the number of cached thumbnails.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Bytes returns the total encoded size of cached thumbnails.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func (c *Cache) updateGauges() {
	metrics.ThumbnailCacheCount.Set(float64(c.lru.Len()))
	metrics.ThumbnailCacheSize.Set(float64(c.bytes))
}
