package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultNameTTL bounds how long a resolved display name stays fresh.
const DefaultNameTTL = 24 * time.Hour

// NameCache is a read-through store of symbol display names.
type NameCache interface {
	Get(ctx context.Context, symbol string) (string, bool)
	Set(ctx context.Context, symbol, name string)
}

type entry struct {
	name    string
	expires time.Time
}

// MemoryCache is the in-process NameCache. A mutex guards the map so
// concurrent first-access misses from multiple chats stay safe.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewMemoryCache creates an in-memory name cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[symbol]
	if !ok {
		return "", false
	}
	if c.now().After(e.expires) {
		delete(c.entries, symbol)
		return "", false
	}
	return e.name, true
}

func (c *MemoryCache) Set(_ context.Context, symbol, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = entry{name: name, expires: c.now().Add(c.ttl)}
}
