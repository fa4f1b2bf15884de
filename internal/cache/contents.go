// Package cache holds folder contents fetched from the storage server, keyed by
// folder id. Entries live until they are invalidated.
package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/models"
)

// Loader fetches one folder's contents. *api.Client implements it.
type Loader interface {
	GetFolderContents(ctx context.Context, id int64) (*models.FolderContents, error)
}

type entry struct {
	contents *models.FolderContents
	loaded   bool
}

// ContentsCache is a read-through cache of FolderContents.
type ContentsCache struct {
	loader Loader
	bus    *events.EventBus
	group  singleflight.Group

	mu      sync.RWMutex
	entries map[int64]entry
	gen     map[int64]uint64 // bumped by Invalidate so in-flight loads do not store stale data
}

// NewContentsCache creates an empty cache. bus may be nil.
func NewContentsCache(loader Loader, bus *events.EventBus) *ContentsCache {
	return &ContentsCache{
		loader:  loader,
		bus:     bus,
		entries: make(map[int64]entry),
		gen:     make(map[int64]uint64),
	}
}

// Contents returns the cached contents of folder id, fetching them on a miss.
// Concurrent misses for the same folder share one request. Errors are not cached.
func (c *ContentsCache) Contents(ctx context.Context, id int64) (*models.FolderContents, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	gen := c.gen[id]
	c.mu.RUnlock()
	if ok && e.loaded {
		return e.contents, nil
	}

	v, err, _ := c.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		contents, err := c.loader.GetFolderContents(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen[id] == gen {
			c.entries[id] = entry{contents: contents, loaded: true}
		}
		c.mu.Unlock()
		return contents, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FolderContents), nil
}

// Peek returns the cached contents without fetching.
func (c *ContentsCache) Peek(id int64) (*models.FolderContents, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e.contents, ok && e.loaded
}

// Invalidate drops the entry for folder id so the next read refetches it.
func (c *ContentsCache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.entries, id)
	c.gen[id]++
	c.mu.Unlock()
	c.group.Forget(strconv.FormatInt(id, 10))

	if c.bus != nil {
		c.bus.Publish(&events.CacheInvalidatedEvent{
			BaseEvent: events.NewBase(events.EventCacheInvalidated),
			FolderID:  id,
		})
	}
}

// InvalidateAll empties the cache.
func (c *ContentsCache) InvalidateAll() {
	c.mu.Lock()
	ids := make([]int64, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.Invalidate(id)
	}
}

// Len returns the number of cached folders.
func (c *ContentsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
