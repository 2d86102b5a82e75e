package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

// CacheEntry describes the freshness of one cached collection.
type CacheEntry struct {
	LastFetchedAt time.Time
	TTL           time.Duration
}

type cacheState struct {
	lastFetchedAt time.Time
	result        []catalog.RawRecord
	ok            bool
}

type FetchFunc func(ctx context.Context) ([]catalog.RawRecord, error)

// Coordinator gates fetch operations behind a per-key TTL cache.
// Overlapping calls for the same key share one in-flight fetch, so a burst
// of triggers never issues duplicate network round-trips. A failed fetch
// resets the entry to epoch: errors never consume the TTL window.
type Coordinator struct {
	mu      sync.RWMutex
	entries map[string]*cacheState
	group   singleflight.Group
	now     func() time.Time

	hits   int64
	misses int64
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		entries: make(map[string]*cacheState),
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock. Used by tests.
func (c *Coordinator) SetNowFunc(now func() time.Time) {
	c.now = now
}

// GetOrFetch returns the cached result when the entry is fresh, otherwise
// calls fetch and caches its result. force bypasses the TTL check but
// still updates the entry on success.
func (c *Coordinator) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc, force bool) ([]catalog.RawRecord, error) {
	if !force {
		if result, ok := c.fresh(key, ttl); ok {
			c.mu.Lock()
			c.hits++
			c.mu.Unlock()
			return result, nil
		}
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check after winning the flight: another caller may have
		// refreshed the entry while this one was queued behind it.
		if !force {
			if result, ok := c.fresh(key, ttl); ok {
				return result, nil
			}
		}

		c.mu.Lock()
		c.misses++
		c.mu.Unlock()

		rows, err := fetch(ctx)
		if err != nil {
			c.reset(key)
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = &cacheState{
			lastFetchedAt: c.now(),
			result:        rows,
			ok:            true,
		}
		c.mu.Unlock()

		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]catalog.RawRecord), nil
}

// Invalidate resets a key to epoch so the next call fetches regardless of
// TTL.
func (c *Coordinator) Invalidate(key string) {
	c.reset(key)
}

func (c *Coordinator) Entry(key string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	return CacheEntry{LastFetchedAt: state.lastFetchedAt}, true
}

// Stats returns cache hit and miss counters.
func (c *Coordinator) Stats() (int64, int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *Coordinator) fresh(key string, ttl time.Duration) ([]catalog.RawRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.entries[key]
	if !ok || !state.ok {
		return nil, false
	}
	if c.now().Sub(state.lastFetchedAt) >= ttl {
		return nil, false
	}
	return state.result, true
}

func (c *Coordinator) reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state, ok := c.entries[key]; ok {
		state.lastFetchedAt = time.Time{}
	}
}
