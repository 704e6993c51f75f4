package rates

import (
	"strings"
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fake to control TTL
// expiry deterministically.
type Clock func() time.Time

// Cache is a thread-safe rate cache keyed by currency pair. Entries
// older than the TTL are not returned as fresh, but remain readable in
// stale mode until overwritten.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]rateEntry
	ttl     time.Duration
	now     Clock
}

type rateEntry struct {
	rate     float64
	storedAt time.Time
}

// NewCache creates a rate cache with the given TTL. A nil clock uses
// time.Now.
func NewCache(ttl time.Duration, now Clock) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]rateEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get retrieves the cached rate for a currency pair. stale reports
// whether the entry has outlived the TTL; ok is false only when the
// pair has never been cached.
func (c *Cache) Get(from, to string) (rate float64, stale bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[pairKey(from, to)]
	if !found {
		return 0, false, false
	}
	return entry.rate, c.now().Sub(entry.storedAt) > c.ttl, true
}

// Put stores the rate for a currency pair, resetting its age.
func (c *Cache) Put(from, to string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[pairKey(from, to)] = rateEntry{rate: rate, storedAt: c.now()}
}

// Size returns the number of cached pairs.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func pairKey(from, to string) string {
	return strings.ToUpper(from) + "/" + strings.ToUpper(to)
}
