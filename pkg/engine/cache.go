package engine

import (
	"sync"
	"sync/atomic"

	"github.com/yourusername/lgengine/internal/positionid"
)

// Cache constants
const (
	DefaultCacheSize = 1 << 16 // 64K entries (~0.5MB)
	CacheHit         = ^uint32(0)
)

// invalidKey never occurs on a legal board (it would be 16 tokens)
const invalidKey = ^positionid.PositionKey(0)

// CacheEntry stores a cached mobility count
type CacheEntry struct {
	Key      positionid.PositionKey
	Side     Side
	Mobility int32
}

// MobilityCache is a thread-safe cache of Mobility results.
// Uses a two-way associative cache with MurmurHash3-based indexing
type MobilityCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	// Statistics
	lookups atomic.Uint64
	hits    atomic.Uint64
	adds    atomic.Uint64

	mu sync.RWMutex
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   CacheEntry
	secondary CacheEntry
}

// NewMobilityCache creates a new cache with the given size
// Size will be adjusted to the nearest power of 2
func NewMobilityCache(size uint32) *MobilityCache {
	if size > 1<<31 {
		size = 1 << 31
	}
	if size < 2 {
		size = 2
	}

	// Find smallest power of 2 >= size
	p := uint32(1)
	for p < size {
		p <<= 1
	}
	size = p

	cache := &MobilityCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: (size / 2) - 1,
	}

	cache.Flush()
	return cache
}

// Flush clears all entries from the cache
func (c *MobilityCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		c.entries[i].primary.Key = invalidKey
		c.entries[i].secondary.Key = invalidKey
	}
	c.lookups.Store(0)
	c.hits.Store(0)
	c.adds.Store(0)
}

// hash computes the slot for a key using MurmurHash3-style mixing
func (c *MobilityCache) hash(key positionid.PositionKey, side Side) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	h := uint32(side)

	k := uint32(key)
	k *= c1
	k = (k << 15) | (k >> 17)
	k *= c2

	h ^= k
	h = (h << 13) | (h >> 19)
	h = h*5 + 0xe6546b64

	// Finalization
	h ^= 4
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

// Lookup checks if a mobility count is in the cache.
// Returns (count, CacheHit) if found, otherwise (0, slot) where slot is to be
// passed to Add.
func (c *MobilityCache) Lookup(key positionid.PositionKey, side Side) (int, uint32) {
	slot := c.hash(key, side)
	c.lookups.Add(1)

	c.mu.RLock()
	defer c.mu.RUnlock()

	node := &c.entries[slot]
	if node.primary.Key == key && node.primary.Side == side {
		c.hits.Add(1)
		return int(node.primary.Mobility), CacheHit
	}
	if node.secondary.Key == key && node.secondary.Side == side {
		c.hits.Add(1)
		return int(node.secondary.Mobility), CacheHit
	}
	return 0, slot
}

// Add stores a count. slot should be the value returned by a previous
// Lookup miss.
func (c *MobilityCache) Add(key positionid.PositionKey, side Side, mobility int, slot uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]

	// Move primary to secondary, add new as primary
	node.secondary = node.primary
	node.primary = CacheEntry{
		Key:      key,
		Side:     side,
		Mobility: int32(mobility),
	}

	c.adds.Add(1)
}

// Mobility returns the cached count, computing and storing it on a miss.
func (c *MobilityCache) Mobility(board Board, side Side) int {
	key := board.Key()
	n, slot := c.Lookup(key, side)
	if slot == CacheHit {
		return n
	}
	n = Mobility(board, side)
	c.Add(key, side, n, slot)
	return n
}

// Stats returns cache statistics
func (c *MobilityCache) Stats() (lookups, hits, adds uint64) {
	return c.lookups.Load(), c.hits.Load(), c.adds.Load()
}

// HitRate returns the cache hit rate as a percentage
func (c *MobilityCache) HitRate() float64 {
	lookups := c.lookups.Load()
	if lookups == 0 {
		return 0
	}
	return float64(c.hits.Load()) / float64(lookups) * 100
}
