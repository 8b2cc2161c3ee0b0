package pdf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// DefaultImageCacheSize is the number of normalized signature images kept
// between embeds
const DefaultImageCacheSize = 64

// ImageCache is a thread-safe least recently used cache of normalized
// signature images. Duplicated fields share the same captured image, so a
// signature copied to every page is decoded and resampled once per size
type ImageCache struct {
	mutex    sync.Mutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // Most recently used
	tail     *cacheNode // Least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	value *NormalizedImage
	prev  *cacheNode
	next  *cacheNode
}

// CacheStats provides statistics about cache performance
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate_percent"`
	Size     int     `json:"current_size"`
	Capacity int     `json:"max_capacity"`
}

// NewImageCache creates a cache holding up to capacity images
func NewImageCache(capacity int) *ImageCache {
	if capacity <= 0 {
		capacity = DefaultImageCacheSize
	}

	c := &ImageCache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// imageKey identifies raw image bytes fitted to a field box
func imageKey(raw []byte, width, height float64) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%.3f:%.3f", hex.EncodeToString(sum[:]), width, height)
}

// Normalize returns the cached normalization of raw for a width x height box,
// computing and storing it on a miss. Failures are not cached
func (c *ImageCache) Normalize(raw []byte, width, height float64) (*NormalizedImage, error) {
	key := imageKey(raw, width, height)
	if img, ok := c.get(key); ok {
		return img, nil
	}

	img, err := NormalizeSignatureImage(raw, width, height)
	if err != nil {
		return nil, err
	}
	c.put(key, img)
	return img, nil
}

func (c *ImageCache) get(key string) (*NormalizedImage, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, exists := c.items[key]; exists {
		c.moveToFront(node)
		c.hits++
		return node.value, true
	}
	c.misses++
	return nil, false
}

func (c *ImageCache) put(key string, value *NormalizedImage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, exists := c.items[key]; exists {
		node.value = value
		c.moveToFront(node)
		return
	}

	node := &cacheNode{key: key, value: value}
	c.addToFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		c.evictLRU()
	}
}

// Len returns the current number of cached images
func (c *ImageCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *ImageCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  hitRate,
		Size:     len(c.items),
		Capacity: c.capacity,
	}
}

func (c *ImageCache) moveToFront(node *cacheNode) {
	c.removeNode(node)
	c.addToFront(node)
}

func (c *ImageCache) addToFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *ImageCache) removeNode(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

func (c *ImageCache) evictLRU() {
	lru := c.tail.prev
	if lru != c.head {
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
}
