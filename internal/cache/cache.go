// Package cache provides a memoizing wrapper around a record source.
// A cached source serves repeated fetches from memory for a configurable
// TTL, which keeps a multi-step run from hitting the same endpoint twice.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/blogfeed/aggregator/internal/source"
	"github.com/blogfeed/aggregator/pkg/blog"
)

// DefaultTTL is used when a cached source is created with a zero TTL.
const DefaultTTL = 60 * time.Second

// Cached wraps a record source and memoizes successful fetches.
// Errors are never cached: a failed fetch leaves any previously cached
// records in place until they expire.
type Cached struct {
	src source.Source
	ttl time.Duration

	// now is overridable for tests.
	now func() time.Time

	mu        sync.Mutex
	records   []blog.Record
	fetchedAt time.Time
	valid     bool
}

var _ source.Source = (*Cached)(nil)

// Wrap creates a cached view of the given source.
// A ttl of zero or less falls back to DefaultTTL.
func Wrap(src source.Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{
		src: src,
		ttl: ttl,
		now: time.Now,
	}
}

// Fetch returns the cached records when they are still fresh, otherwise
// delegates to the underlying source. Callers receive a copy of the
// cached slice, so mutating the result never corrupts the cache.
func (c *Cached) Fetch(ctx context.Context) ([]blog.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.copyRecords(), nil
	}

	records, err := c.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.records = records
	c.fetchedAt = c.now()
	c.valid = true
	return c.copyRecords(), nil
}

// Clear drops the cached records so the next Fetch hits the source again.
func (c *Cached) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.valid = false
}

func (c *Cached) copyRecords() []blog.Record {
	out := make([]blog.Record, len(c.records))
	copy(out, c.records)
	return out
}
