package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText        = errors.New("text cannot be empty")
	ErrUnsupportedModel = errors.New("unsupported provider")
	ErrProviderFailed   = errors.New("embedding provider failed")
)

// DefaultCacheSize bounds the embedding cache when no capacity is configured
const DefaultCacheSize = 10000

// Provider is the external embedding backend: one call, text in, vector out.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Init prepares the backend (model load). It must be idempotent.
	Init(ctx context.Context) error

	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Name returns the provider name
	Name() string

	// Close releases any resources held by the provider
	Close() error
}

// Cache provides in-memory LRU caching of embeddings keyed by content hash.
// Get promotes an entry to most-recently-used; Set evicts the least-recently
// used entry when at capacity, so the size never exceeds the configured bound.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates a new embedding cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is corrected above
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. The copy prevents caller
// mutations from corrupting cached values.
func (c *Cache) Get(key string) ([]float32, bool) {
	vec, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector, evicting the least-recently-used entry at capacity
func (c *Cache) Set(key string, vec []float32) {
	c.cache.Add(key, vec)
}

// Len returns the current cache size
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeKey computes the SHA-256 cache key for a text
func ComputeKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
