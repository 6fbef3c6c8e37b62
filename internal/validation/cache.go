package validation

import (
	"bytes"
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/metrics"
	"github.com/vexsearch/vexdb/internal/namespace"
)

// DefaultCacheSize is the number of compiled validators kept by a Cache.
const DefaultCacheSize = 256

type cacheKey struct {
	ns  string
	sum uint64
}

type cacheEntry struct {
	key       cacheKey
	validator *Validator
}

// Cache keeps compiled validators per namespace, evicting the least recently
// used entry once full. A namespace whose validator document changes gets a
// new entry; the stale one ages out.
type Cache struct {
	mu      sync.RWMutex
	max     int
	opts    Options
	entries map[cacheKey]*list.Element
	lru     *list.List
}

// NewCache creates a Cache holding at most size validators compiled with opts.
func NewCache(size int, opts Options) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		max:     size,
		opts:    opts,
		entries: make(map[cacheKey]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the compiled validator for ns, compiling it on a miss. Compile
// errors are not cached.
func (c *Cache) Get(ns namespace.Namespace, validator bson.Raw) (*Validator, error) {
	if len(validator) == 0 {
		validator = bson.Raw(emptyDocument)
	}
	key := cacheKey{ns: ns.String(), sum: xxhash.Sum64(validator)}

	c.mu.RLock()
	elem, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		// Entry may have been evicted between the two locks.
		if _, still := c.entries[key]; still {
			c.lru.MoveToFront(elem)
		}
		c.mu.Unlock()
		if v := elem.Value.(*cacheEntry).validator; bytes.Equal(v.raw, validator) {
			metrics.IncValidatorCacheHit()
			return v, nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		if v := elem.Value.(*cacheEntry).validator; bytes.Equal(v.raw, validator) {
			c.lru.MoveToFront(elem)
			metrics.IncValidatorCacheHit()
			return v, nil
		}
		// Hash collision: replace the older validator.
		c.lru.Remove(elem)
		delete(c.entries, key)
	}

	metrics.IncValidatorCacheMiss()
	v, err := New(cloneRaw(validator), c.opts)
	if err != nil {
		return nil, err
	}

	for c.lru.Len() >= c.max {
		c.evictOldestLocked()
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, validator: v})
	return v, nil
}

// Len returns the number of cached validators.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// evictOldestLocked drops the least recently used entry. Must be called with
// the write lock held.
func (c *Cache) evictOldestLocked() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	c.lru.Remove(back)
	delete(c.entries, back.Value.(*cacheEntry).key)
}

// cloneRaw copies b so a cached validator never aliases a request buffer.
func cloneRaw(b bson.Raw) bson.Raw {
	if b == nil {
		return nil
	}
	out := make(bson.Raw, len(b))
	copy(out, b)
	return out
}
