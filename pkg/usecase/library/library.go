package library

import (
	"context"
	"sync"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const defaultPageSize = 20

// Cache is an in-memory mirror of the remote store list. It is updated
// optimistically after mutations and reconciled wholesale on Refresh; the
// remote listing is the sole source of truth.
type Cache struct {
	mu       sync.Mutex
	remote   adapter.FileSearch
	pageSize int
	stores   []*model.Store
	lastErr  error
}

type Option func(*Cache)

func WithPageSize(n int) Option {
	return func(c *Cache) {
		c.pageSize = n
	}
}

func New(remote adapter.FileSearch, opts ...Option) *Cache {
	c := &Cache{
		remote:   remote,
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh fetches the full store list and replaces the cache wholesale. On
// failure the previous contents are kept (stale but available) and the error
// is recorded for inline display; a refresh failure is never fatal.
func (c *Cache) Refresh(ctx context.Context) ([]*model.Store, error) {
	stores, err := c.remote.ListStores(ctx, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = err
		return nil, goerr.Wrap(err, "failed to refresh library")
	}

	c.stores = stores
	c.lastErr = nil
	return c.snapshot(), nil
}

// InsertOptimistic prepends a just-created store without waiting for the
// eventually-consistent listing to reflect it. Any stale entry with the same
// id is replaced.
func (c *Cache) InsertOptimistic(store *model.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]*model.Store, 0, len(c.stores)+1)
	kept = append(kept, store)
	for _, s := range c.stores {
		if s.ID != store.ID {
			kept = append(kept, s)
		}
	}
	c.stores = kept
}

// RemoveOptimistic drops a store entry immediately for responsiveness. A
// later Refresh reconciles against the authoritative list.
func (c *Cache) RemoveOptimistic(id model.StoreID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.stores[:0]
	for _, s := range c.stores {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	c.stores = kept
}

// Get returns the cached store with the given id, or nil.
func (c *Cache) Get(id model.StoreID) *model.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.stores {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Stores returns a copy of the current cache contents.
func (c *Cache) Stores() []*model.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Err returns the error recorded by the last failed Refresh, nil after a
// successful one.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Cache) snapshot() []*model.Store {
	out := make([]*model.Store, len(c.stores))
	copy(out, c.stores)
	return out
}
