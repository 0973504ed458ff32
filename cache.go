package plinkbed

import (
	"github.com/hashicorp/golang-lru/simplelru"
)

const bytesPerFloat = 8

// CacheStats summarizes one VariantCache since it was built.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Capacity  int
}

// VariantCache memoizes standardized variants by variant index. All entries
// belong to one sample mask, so every entry has the same length and the byte
// budget reduces to a fixed entry count. The least recently used entry is
// evicted to make room for a new one.
//
// A VariantCache is not safe for concurrent use: Get followed by Put is not
// atomic.
type VariantCache struct {
	vectorLen int
	capacity  int
	lru       *simplelru.LRU
	stats     CacheStats
	purging   bool
}

// NewVariantCache builds a cache for vectors of vectorLen values within
// budgetBytes. If not even one vector fits, the cache stores nothing and
// every Get misses.
func NewVariantCache(vectorLen int, budgetBytes int64) *VariantCache {
	c := &VariantCache{vectorLen: vectorLen}

	if vectorLen > 0 && budgetBytes > 0 {
		c.capacity = int(budgetBytes / int64(vectorLen*bytesPerFloat))
	}

	if c.capacity > 0 {
		// NewLRU only fails for a non-positive size.
		c.lru, _ = simplelru.NewLRU(c.capacity, func(key, value interface{}) {
			if c.purging {
				return
			}
			c.stats.Evictions++
			cacheEvictions.Inc()
		})
	}

	c.stats.Capacity = c.capacity
	return c
}

// Get returns the cached vector for variant, marking it most recently used.
// The returned slice is shared with the cache and must not be modified.
func (c *VariantCache) Get(variant int) ([]float64, bool) {
	if c.lru != nil {
		if v, ok := c.lru.Get(variant); ok {
			c.stats.Hits++
			cacheHits.Inc()
			return v.([]float64), true
		}
	}
	c.stats.Misses++
	cacheMisses.Inc()
	return nil, false
}

// Put stores vec for variant, evicting the least recently used entry if the
// cache is full. The cache keeps vec itself, not a copy.
func (c *VariantCache) Put(variant int, vec []float64) error {
	if len(vec) != c.vectorLen {
		return configErrorf("vector for variant %d has %d values; cache holds vectors of %d", variant, len(vec), c.vectorLen)
	}
	if c.lru == nil {
		return nil
	}
	c.lru.Add(variant, vec)
	return nil
}

// Clear discards every entry.
func (c *VariantCache) Clear() {
	if c.lru != nil {
		// Purge reports every entry to the eviction callback.
		c.purging = true
		c.lru.Purge()
		c.purging = false
	}
}

// Len is the number of cached variants.
func (c *VariantCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Capacity is the maximum number of cached variants.
func (c *VariantCache) Capacity() int {
	return c.capacity
}

// VectorLen is the length of every vector the cache accepts.
func (c *VariantCache) VectorLen() int {
	return c.vectorLen
}

// Stats reports hits, misses and evictions since the cache was built.
func (c *VariantCache) Stats() CacheStats {
	s := c.stats
	s.Entries = c.Len()
	return s
}
