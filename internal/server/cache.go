package server

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/tinylru"
)

// resultCache keeps recently rendered responses keyed by a hash of the
// request. A size of zero disables caching.
type resultCache struct {
	mu   sync.Mutex
	size int
	lru  tinylru.LRU
}

func newResultCache(size int) *resultCache {
	c := &resultCache{size: size}
	if size > 0 {
		c.lru.Resize(size)
	}
	return c
}

func cacheKey(data []byte, maxVertices int, format, base string) uint64 {
	d := xxhash.New()
	d.Write(data)
	d.WriteString("\x00" + strconv.Itoa(maxVertices) + "\x00" + format + "\x00" + base)
	return d.Sum64()
}

func (c *resultCache) get(key uint64) ([]byte, bool) {
	if c.size == 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *resultCache) set(key uint64, body []byte) {
	if c.size == 0 {
		return
	}
	c.mu.Lock()
	c.lru.Set(key, body)
	c.mu.Unlock()
}

func (c *resultCache) len() int {
	if c.size == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
