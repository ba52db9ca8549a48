package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alex-user-go/farescan/internal/search"
	"github.com/alex-user-go/farescan/internal/search/types"
)

// Cache keeps recent fare tables with a TTL and collapses concurrent identical searches.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	ttl      time.Duration
	inflight map[string]*inflightRequest
	done     chan struct{}
}

type cacheEntry struct {
	table     *types.FareTable
	expiresAt time.Time
}

type inflightRequest struct {
	done  chan struct{}
	table *types.FareTable
	err   error
}

// NewCache creates a new Cache with the specified TTL.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries:  make(map[string]*cacheEntry),
		ttl:      ttl,
		inflight: make(map[string]*inflightRequest),
		done:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Close stops the background cleanup goroutine.
func (c *Cache) Close() {
	close(c.done)
}

// Key identifies a search: route, dates, party size and mile value.
func (c *Cache) Key(q search.Query) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%s",
		strings.ToUpper(q.Window.Origin),
		strings.ToUpper(q.Window.Destination),
		q.Window.Start,
		q.Window.Days,
		q.Adults,
		q.Cost.MileValue.String(),
	)
}

// GetOrFetch returns the cached table for key or runs fetch.
// Concurrent callers for the same key share one fetch. If that fetch was
// cancelled, a waiter whose own ctx is still live runs fetch itself.
// The boolean reports a cache hit.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch func() (*types.FareTable, error)) (*types.FareTable, bool, error) {
	for {
		c.mu.Lock()

		if entry, ok := c.entries[key]; ok && time.Now().Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.table, true, nil
		}

		inflight, ok := c.inflight[key]
		if !ok {
			break
		}
		c.mu.Unlock()

		select {
		case <-inflight.done:
			if cancelled(inflight.err) && ctx.Err() == nil {
				continue
			}
			return inflight.table, false, inflight.err
		case <-ctx.Done():
			return nil, false, context.Cause(ctx)
		}
	}

	// c.mu is held here.
	inflight := &inflightRequest{
		done: make(chan struct{}),
	}
	c.inflight[key] = inflight
	c.mu.Unlock()

	table, err := fetch()

	c.mu.Lock()
	inflight.table = table
	inflight.err = err
	// Tables with nothing but failures are not worth keeping.
	if err == nil && table != nil && table.Summary.TransportFailures < table.Summary.Requested {
		c.entries[key] = &cacheEntry{
			table:     table,
			expiresAt: time.Now().Add(c.ttl),
		}
	}
	delete(c.inflight, key)
	c.mu.Unlock()

	close(inflight.done)

	return table, false, err
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate drops key so the next lookup fetches again.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}
