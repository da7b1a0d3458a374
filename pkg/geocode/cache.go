package geocode

import (
	"context"
	"fmt"
	"sync"
)

// Cache stores names by coordinate key for the length of a naming run.
// The SQLite run store implements it for caches that outlive one run.
type Cache interface {
	GetCachedName(ctx context.Context, key string) (string, bool, error)
	SetCachedName(ctx context.Context, key, name string) error
}

// CacheKey rounds a coordinate to three decimals (about 110 m of latitude),
// so courts on the same block share a name.
func CacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lng)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu    sync.Mutex
	names map[string]string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{names: make(map[string]string)}
}

func (c *MemoryCache) GetCachedName(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[key]
	return name, ok, nil
}

func (c *MemoryCache) SetCachedName(_ context.Context, key, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[key] = name
	return nil
}

// Len returns the number of cached names.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}
