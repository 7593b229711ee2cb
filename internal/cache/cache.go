// Package cache provides the short-TTL memoized read cache that fronts
// session lookups, participant lists and analytics computation. It has no
// automatic invalidation: every command-style mutation must delete the
// affected keys itself.
package cache

import (
	"sync"
	"time"
)

// Default TTLs per key class.
const (
	SessionTTL      = 60 * time.Second
	ParticipantsTTL = 15 * time.Second
	AnalyticsTTL    = 15 * time.Second
)

type entry struct {
	value     any
	expiresAt time.Time
}

// TTL is a key -> (value, absolute expiry) store safe for concurrent use.
type TTL struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *TTL {
	return &TTL{entries: map[string]entry{}, now: time.Now}
}

// Get returns the cached value only if it has not expired.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value with an absolute expiry of now+ttl.
func (c *TTL) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete drops the given keys. Missing keys are ignored.
func (c *TTL) Delete(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}

// Sweep removes expired entries and reports how many were dropped. Expiry is
// otherwise lazy: stale entries linger until read or swept.
func (c *TTL) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *TTL) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key builders for the fixed key classes.

func SessionByID(id string) string { return "session:id:" + id }

func SessionByCode(code string) string { return "session:code:" + code }

func ParticipantsBySession(id string) string { return "participants:" + id }

func AnalyticsBySession(id string) string { return "analytics:" + id }
