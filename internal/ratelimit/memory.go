package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = 1024

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter keeps fixed-window counters in a map. It is only correct
// for a single API instance.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	hits    int
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]memoryWindow),
		now:     time.Now,
	}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	c.hits++
	if c.hits%sweepEvery == 0 {
		for k, w := range c.windows {
			if !now.Before(w.resetAt) {
				delete(c.windows, k)
			}
		}
	}

	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = memoryWindow{resetAt: now.Add(window)}
	}
	w.count++
	c.windows[key] = w

	return w.count, nil
}
