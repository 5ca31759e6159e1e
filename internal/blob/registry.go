package blob

import (
	"fmt"
	"strings"
	"sync"

	"bananalab/internal/logging"
	"bananalab/internal/metrics"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/groupcache/lru"
	"github.com/google/uuid"
)

var log = logging.Component("blob")

// Prefix starts every handle issued by a Registry.
const Prefix = "blob:bananalab/"

// DefaultKeyedEntries bounds the keyed handle cache when no size is given.
const DefaultKeyedEntries = 32

// IsHandle reports whether ref is a blob handle.
func IsHandle(ref string) bool {
	return strings.HasPrefix(ref, Prefix)
}

// Object is the binary payload behind a handle.
type Object struct {
	MIME string
	Data []byte
}

type keyedHandle struct {
	handle string
	source uint64
}

// Registry issues and revokes handles. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	objects map[string]Object
	keyed   *lru.Cache
}

// NewRegistry returns a registry whose keyed cache holds at most
// maxKeyed entries. Evicting a keyed entry revokes its handle.
func NewRegistry(maxKeyed int) *Registry {
	if maxKeyed <= 0 {
		maxKeyed = DefaultKeyedEntries
	}
	r := &Registry{
		objects: make(map[string]Object),
		keyed:   lru.New(maxKeyed),
	}
	r.keyed.OnEvicted = func(key lru.Key, value interface{}) {
		if kh, ok := value.(keyedHandle); ok {
			r.revokeLocked(kh.handle)
		}
	}
	return r
}

// ToHandle converts a data URI to a handle. Handles pass through
// unchanged. With a non-empty key, the same source and key return the same
// handle; a different source under an existing key revokes the old handle.
func (r *Registry) ToHandle(ref, key string) (string, error) {
	if IsHandle(ref) {
		return ref, nil
	}

	var sum uint64
	if key != "" {
		sum = xxhash.Sum64String(ref)
		r.mu.Lock()
		h, ok := r.keyedLocked(key, sum)
		r.mu.Unlock()
		if ok {
			return h, nil
		}
	}

	mime, data, err := ParseDataURI(ref)
	if err != nil {
		return "", fmt.Errorf("convert to handle: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if key != "" {
		// another caller may have issued this key while the URI was decoded
		if h, ok := r.keyedLocked(key, sum); ok {
			return h, nil
		}
	}
	handle := Prefix + uuid.New().String()
	r.objects[handle] = Object{MIME: mime, Data: data}
	metrics.BlobHandlesIssued.Inc()
	metrics.BlobHandlesActive.Inc()
	metrics.BlobBytesActive.Add(float64(len(data)))

	if key != "" {
		// Remove runs OnEvicted, revoking a handle issued for an older source.
		r.keyed.Remove(key)
		r.keyed.Add(key, keyedHandle{handle: handle, source: sum})
	}
	log.Debug("issued %s (%s, %d bytes)", handle, mime, len(data))
	return handle, nil
}

// Resolve returns the object behind a live handle.
func (r *Registry) Resolve(handle string) (Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[handle]
	return obj, ok
}

// Revoke invalidates handle. It reports false when the handle was unknown
// or already revoked.
func (r *Registry) Revoke(handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revokeLocked(handle)
}

// Release revokes the handle cached under key. Unknown keys are ignored.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyed.Remove(key)
}

// ReleaseAll revokes every handle issued by the registry.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyed.Clear()
	for h := range r.objects {
		r.revokeLocked(h)
	}
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// keyedLocked returns the live handle issued under key for the source sum.
func (r *Registry) keyedLocked(key string, sum uint64) (string, bool) {
	v, ok := r.keyed.Get(key)
	if !ok {
		return "", false
	}
	kh := v.(keyedHandle)
	if _, live := r.objects[kh.handle]; !live || kh.source != sum {
		return "", false
	}
	return kh.handle, true
}

func (r *Registry) revokeLocked(handle string) bool {
	obj, ok := r.objects[handle]
	if !ok {
		return false
	}
	delete(r.objects, handle)
	metrics.BlobHandlesRevoked.Inc()
	metrics.BlobHandlesActive.Dec()
	metrics.BlobBytesActive.Sub(float64(len(obj.Data)))
	log.Debug("revoked %s", handle)
	return true
}
