package cache

import (
	"context"
	"sync"
	"time"
)

type item struct {
	userID     uint
	issuedAt   time.Time
	expiration int64
}

// TokenCache is an in-process cache mapping token cache keys to the owning
// user and issuance time. It backs token resolution when Redis is disabled.
// Entries carry a bounded TTL so stale mappings age out after revocation
// elsewhere.
type TokenCache struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
	done  chan struct{}
}

func NewTokenCache(ttl time.Duration) *TokenCache {
	c := &TokenCache{
		items: make(map[string]item),
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go c.startGC()
	return c
}

func (c *TokenCache) GetToken(_ context.Context, key string) (uint, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found {
		return 0, time.Time{}, false
	}
	if time.Now().UnixNano() > it.expiration {
		return 0, time.Time{}, false
	}
	return it.userID, it.issuedAt, true
}

func (c *TokenCache) SetToken(_ context.Context, key string, userID uint, issuedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		userID:     userID,
		issuedAt:   issuedAt,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
}

func (c *TokenCache) DeleteToken(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *TokenCache) Close() {
	close(c.done)
}

func (c *TokenCache) startGC() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			c.mu.Lock()
			for k, v := range c.items {
				if now > v.expiration {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
