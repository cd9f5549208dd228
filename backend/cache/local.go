package cache

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

// LocalSongCache is the single-process fallback used without Redis.
type LocalSongCache struct {
	mu          sync.Mutex
	entries     map[int64]localEntry
	generations map[int64]int64
	ttl         time.Duration
	now         func() time.Time
}

func NewLocalSongCache(ttl time.Duration) *LocalSongCache {
	return &LocalSongCache{
		entries:     make(map[int64]localEntry),
		generations: make(map[int64]int64),
		ttl:         ttl,
		now:         time.Now,
	}
}

func (c *LocalSongCache) expired(entry localEntry, now time.Time) bool {
	return c.ttl > 0 && !now.Before(entry.expiresAt)
}

func (c *LocalSongCache) Get(_ context.Context, id int64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	if c.expired(entry, c.now()) {
		delete(c.entries, id)
		return nil, ErrCacheMiss
	}
	return entry.data, nil
}

func (c *LocalSongCache) Generation(_ context.Context, id int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id], nil
}

func (c *LocalSongCache) SetIfGeneration(_ context.Context, id int64, gen int64, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)
	if c.generations[id] != gen {
		return nil
	}
	c.entries[id] = localEntry{data: stored, expiresAt: now.Add(c.ttl)}
	return nil
}

func (c *LocalSongCache) Invalidate(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[id]++
	delete(c.entries, id)
	return nil
}

// sweepLocked drops every expired entry. Generations stay, they are the
// guard against late fills.
func (c *LocalSongCache) sweepLocked(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for id, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, id)
		}
	}
}
