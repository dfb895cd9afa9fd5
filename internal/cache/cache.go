// Package cache memoizes parsed entries for the lifetime of one batch
// operation. Each fill invocation owns a fresh Cache; nothing survives
// the batch.
package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/abbradar/anki-thai-dictionary/internal/domain"
)

// FetchFunc produces a parsed entry, usually Loader.Load.
type FetchFunc func(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error)

// Cache guarantees at most one fetch per entry id per batch, even when
// callers overlap. Errors are not cached: a failed id is retried on the
// next request.
type Cache struct {
	fetch FetchFunc

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[domain.EntryID]*domain.DictionaryEntry
}

// New creates a Cache over the given fetch function.
func New(fetch FetchFunc) *Cache {
	return &Cache{
		fetch:   fetch,
		entries: make(map[domain.EntryID]*domain.DictionaryEntry),
	}
}

// Entry returns the cached entry for id, fetching it on first request.
// Concurrent requests for the same id share a single fetch.
func (c *Cache) Entry(ctx context.Context, id domain.EntryID) (*domain.DictionaryEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return entry, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(int(id)), func() (any, error) {
		c.mu.RLock()
		entry, ok := c.entries[id]
		c.mu.RUnlock()
		if ok {
			return entry, nil
		}

		entry, err := c.fetch(ctx, id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[id] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.DictionaryEntry), nil
}

// Prefetch warms the cache for a set of ids with up to limit parallel
// fetches. Failures are left for the later Entry call to report; the
// returned error only reflects context cancellation.
func (c *Cache) Prefetch(ctx context.Context, ids []domain.EntryID, limit int) error {
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, _ = c.Entry(ctx, id)
			return nil
		})
	}
	return g.Wait()
}
