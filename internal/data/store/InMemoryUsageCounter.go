package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/ragchat/internal/domain/commonModels"
)

type cachedMonth struct {
	version int64
	cached  bool
	totals  commonModels.UsageTotals
}

// InMemoryUsageCounter follows the Redis counter's versioning. A single process
// cannot miss an invalidation, so cached sums never go stale by time.
type InMemoryUsageCounter struct {
	lock   sync.Mutex
	months map[string]*cachedMonth
}

func NewInMemoryUsageCounter() *InMemoryUsageCounter {
	return &InMemoryUsageCounter{months: make(map[string]*cachedMonth)}
}

func (c *InMemoryUsageCounter) month(userId string, month time.Time) *cachedMonth {
	key := monthKey(userId, month)
	m, ok := c.months[key]
	if !ok {
		m = &cachedMonth{}
		c.months[key] = m
	}
	return m
}

func (c *InMemoryUsageCounter) GetMonth(_ context.Context, userId string, month time.Time) (commonModels.UsageTotals, bool, int64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	m := c.month(userId, month)
	if !m.cached {
		return commonModels.UsageTotals{}, false, m.version, nil
	}
	return m.totals, true, m.version, nil
}

func (c *InMemoryUsageCounter) SeedMonth(_ context.Context, userId string, month time.Time, version int64, totals commonModels.UsageTotals) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	m := c.month(userId, month)
	if m.version == version {
		m.cached = true
		m.totals = totals
	}
	return nil
}

func (c *InMemoryUsageCounter) InvalidateMonth(_ context.Context, userId string, month time.Time) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	m := c.month(userId, month)
	m.version++
	m.cached = false
	return nil
}
