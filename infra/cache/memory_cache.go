package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/google/uuid"
)

// MemoryBalanceCache implements cache.BalanceCache using in-memory storage.
type MemoryBalanceCache struct {
	entries map[uuid.UUID]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	balance   cache.Balance
	expiresAt time.Time
}

// NewMemoryBalanceCache creates a new in-memory cache. A zero ttl keeps entries
// until they are replaced or deleted.
func NewMemoryBalanceCache(ttl time.Duration) *MemoryBalanceCache {
	c := &MemoryBalanceCache{
		entries: make(map[uuid.UUID]*cacheEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanup(ttl)
	}
	return c
}

// Get retrieves a balance from cache.
func (c *MemoryBalanceCache) Get(_ context.Context, accountID uuid.UUID) (cache.Balance, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[accountID]
	if !ok || c.expired(entry, time.Now()) {
		return cache.Balance{}, false, nil
	}
	return entry.balance, true, nil
}

// Set stores b unless a live entry with a higher or equal sequence exists.
func (c *MemoryBalanceCache) Set(_ context.Context, accountID uuid.UUID, b cache.Balance) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if cur, ok := c.entries[accountID]; ok && !c.expired(cur, now) && cur.balance.Seq >= b.Seq {
		return nil
	}
	c.entries[accountID] = &cacheEntry{balance: b, expiresAt: now.Add(c.ttl)}
	return nil
}

// Delete removes an account's balance from cache.
func (c *MemoryBalanceCache) Delete(_ context.Context, accountID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, accountID)
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryBalanceCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryBalanceCache) expired(e *cacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.After(e.expiresAt)
}

// cleanup removes expired entries from cache.
func (c *MemoryBalanceCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if c.expired(entry, now) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
