package cache

import (
	"context"
	"sync"
	"time"

	"DomainQL/internal/logger"
)

const memorySweepFreq = time.Minute

type memoryEntry struct {
	n         int64
	createdAt time.Time
}

// Memory is an in-process CountCache. Entries expire ttl after they were
// stored; at most maxEntries are kept (0 means unbounded).
type Memory struct {
	mu         sync.Mutex
	items      map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	lastSweep  time.Time
	now        func() time.Time
}

func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return &Memory{
		items:      make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *Memory) Get(_ context.Context, key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)
	entry, ok := c.items[key]
	if !ok {
		return 0, false
	}
	if c.expired(entry, now) {
		delete(c.items, key)
		return 0, false
	}
	return entry.n, true
}

func (c *Memory) Set(_ context.Context, key string, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)

	if _, ok := c.items[key]; !ok && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.sweepLocked(now)
		if len(c.items) >= c.maxEntries {
			logger.Warn("count_cache_full", map[string]any{
				"entries":     len(c.items),
				"max_entries": c.maxEntries,
			})
			return
		}
	}
	c.items[key] = memoryEntry{n: n, createdAt: now}
}

func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Memory) expired(e memoryEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.createdAt) > c.ttl
}

func (c *Memory) maybeSweepLocked(now time.Time) {
	if !c.lastSweep.IsZero() && now.Sub(c.lastSweep) < memorySweepFreq {
		return
	}
	c.sweepLocked(now)
}

func (c *Memory) sweepLocked(now time.Time) {
	for key, entry := range c.items {
		if c.expired(entry, now) {
			delete(c.items, key)
		}
	}
	c.lastSweep = now
}
